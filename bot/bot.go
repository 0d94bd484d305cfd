package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"campus-canteen/config"
	"campus-canteen/lang"
	"campus-canteen/logger"
	"campus-canteen/models"
	"campus-canteen/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

var log = logger.GetLogger()

type viewKind string

const (
	viewMenu      viewKind = "menu"
	viewFilters   viewKind = "filters"
	viewCart      viewKind = "cart"
	viewFavorites viewKind = "favorites"
)

// view is the message a user last opened; it is edited in place on every change.
type view struct {
	chatID    int64
	messageID int
	kind      viewKind
	page      int
}

type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	catalog  *services.CatalogHolder
	sessions *services.SessionManager

	userLang   map[int64]string
	userLangMu sync.RWMutex

	views   map[int64]*view
	viewsMu sync.Mutex

	watched   map[string]bool // session ids already re-rendering on store events
	watchedMu sync.Mutex
}

func New(cfg *config.Config, catalog *services.CatalogHolder, sessions *services.SessionManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, errors.Wrap(err, "connect telegram bot")
	}
	return &Bot{
		api:      api,
		cfg:      cfg,
		catalog:  catalog,
		sessions: sessions,
		userLang: make(map[int64]string),
		views:    make(map[int64]*view),
		watched:  make(map[string]bool),
	}, nil
}

func sessionID(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}

// session returns the user's session. The first time a session is seen, the bot
// subscribes to its store so every cart or favorites change re-renders the open view.
func (b *Bot) session(ctx context.Context, userID int64) (*services.Session, error) {
	sess, err := b.sessions.GetOrCreate(ctx, sessionID(userID))
	if err != nil {
		return nil, err
	}
	b.watchedMu.Lock()
	defer b.watchedMu.Unlock()
	if !b.watched[sess.ID] {
		b.watched[sess.ID] = true
		sess.Store.Subscribe(func(services.Event) {
			b.refresh(userID)
		})
	}
	return sess, nil
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.SetMyCommandsConfig{
		Commands: []tgbotapi.BotCommand{
			{Command: "start", Description: "Start"},
			{Command: "menu", Description: "Browse the menu"},
			{Command: "filters", Description: "Category, cuisine and diet filters"},
			{Command: "cart", Description: "Show cart"},
			{Command: "favorites", Description: "Show favourites"},
			{Command: "search", Description: "Search dishes"},
			{Command: "maxprice", Description: "Set price ceiling"},
			{Command: "minprice", Description: "Set price floor"},
			{Command: "spice", Description: "Set max spice level"},
			{Command: "reset", Description: "Reset filters"},
			{Command: "language", Description: "Change language"},
		},
	}
	_, err := b.api.Request(cfg)
	return err
}

// Start processes updates one at a time until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	if err := b.setBotCommands(); err != nil {
		log.Warnf("failed to register bot commands: %v", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID
	command, arg := splitCommand(msg.Text)

	switch command {
	case "/start":
		b.handleStart(chatID, userID)
	case "/language":
		b.handleLanguage(chatID, userID)
	case "/menu":
		b.openView(ctx, chatID, userID, viewMenu)
	case "/cart":
		b.openView(ctx, chatID, userID, viewCart)
	case "/favorites", "/favourites":
		b.openView(ctx, chatID, userID, viewFavorites)
	case "/filters":
		b.openView(ctx, chatID, userID, viewFilters)
	case "/search":
		// a bare /search clears an active search
		if arg == "" && !b.hasSearch(ctx, userID) {
			b.sendLang(chatID, userID, "usage_search")
			return
		}
		b.updateFilters(ctx, chatID, userID, func(f *models.FilterState) { f.Search = arg })
	case "/maxprice", "/minprice":
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			b.sendLang(chatID, userID, "usage_price")
			return
		}
		b.updateFilters(ctx, chatID, userID, func(f *models.FilterState) {
			if command == "/maxprice" {
				f.PriceMax = n
			} else {
				f.PriceMin = n
			}
		})
	case "/spice":
		if strings.EqualFold(arg, models.Wildcard) {
			b.updateFilters(ctx, chatID, userID, func(f *models.FilterState) { f.MaxSpice = nil })
			return
		}
		n, err := strconv.Atoi(arg)
		if err != nil {
			b.sendLang(chatID, userID, "usage_spice")
			return
		}
		b.updateFilters(ctx, chatID, userID, func(f *models.FilterState) { f.MaxSpice = models.SpiceCap(n) })
	case "/reset":
		sess, err := b.session(ctx, userID)
		if err != nil {
			log.Errorf("failed to open session for user %d: %v", userID, err)
			return
		}
		sess.SetFilters(services.DefaultFilters(b.cfg.Catalog.PriceCeiling))
		b.sendLang(chatID, userID, "filters_reset")
		b.openView(ctx, chatID, userID, viewMenu)
	}
}

// splitCommand returns "/cmd" (without any @botname suffix) and the trimmed remainder.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	command, arg, _ := strings.Cut(text, " ")
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(arg)
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("send error: %v", err)
	}
}

func (b *Bot) getLang(userID int64) string {
	b.userLangMu.RLock()
	defer b.userLangMu.RUnlock()
	if l, ok := b.userLang[userID]; ok {
		return l
	}
	return lang.En
}

func (b *Bot) setLang(userID int64, langCode string) {
	if !lang.Supported(langCode) {
		return
	}
	b.userLangMu.Lock()
	defer b.userLangMu.Unlock()
	b.userLang[userID] = langCode
}

func (b *Bot) sendLang(chatID int64, userID int64, key string, args ...interface{}) {
	b.send(chatID, lang.T(b.getLang(userID), key, args...))
}

func (b *Bot) handleStart(chatID int64, userID int64) {
	l := b.getLang(userID)
	msg := tgbotapi.NewMessage(chatID, lang.T(l, "welcome"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(navRow(l, viewMenu))
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("send error: %v", err)
	}
}

func (b *Bot) handleLanguage(chatID int64, userID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("English", "lang:"+lang.En),
			tgbotapi.NewInlineKeyboardButtonData("हिन्दी", "lang:"+lang.Hi),
		),
	)
	msg := tgbotapi.NewMessage(chatID, lang.T(b.getLang(userID), "choose_lang"))
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("send error: %v", err)
	}
}

func (b *Bot) updateFilters(ctx context.Context, chatID, userID int64, change func(f *models.FilterState)) {
	sess, err := b.session(ctx, userID)
	if err != nil {
		log.Errorf("failed to open session for user %d: %v", userID, err)
		return
	}
	f := sess.Filters()
	change(&f)
	sess.SetFilters(f)
	b.openView(ctx, chatID, userID, viewMenu)
}

func (b *Bot) hasSearch(ctx context.Context, userID int64) bool {
	sess, err := b.session(ctx, userID)
	if err != nil {
		return false
	}
	return sess.Filters().Search != ""
}

// openView sends a fresh message for kind and makes it the user's current view.
func (b *Bot) openView(ctx context.Context, chatID, userID int64, kind viewKind) {
	sess, err := b.session(ctx, userID)
	if err != nil {
		log.Errorf("failed to open session for user %d: %v", userID, err)
		return
	}
	v := &view{chatID: chatID, kind: kind}
	text, kb := b.render(sess, userID, v)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Errorf("send error: %v", err)
		return
	}
	v.messageID = sent.MessageID
	b.viewsMu.Lock()
	b.views[userID] = v
	b.viewsMu.Unlock()
}

// refresh re-renders the user's current view in place.
func (b *Bot) refresh(userID int64) {
	b.viewsMu.Lock()
	v, ok := b.views[userID]
	var snapshot view
	if ok {
		snapshot = *v
	}
	b.viewsMu.Unlock()
	if !ok {
		return
	}
	sess, err := b.sessions.Get(sessionID(userID))
	if err != nil {
		return
	}
	text, kb := b.render(sess, userID, &snapshot)
	edit := tgbotapi.NewEditMessageTextAndMarkup(snapshot.chatID, snapshot.messageID, text, kb)
	if _, err := b.api.Send(edit); err != nil && !strings.Contains(err.Error(), "not modified") {
		log.Errorf("edit error: %v", err)
	}
}

// adoptView makes the message a button was pressed on the user's current view,
// keeping the kind of view that message was drawn as.
func (b *Bot) adoptView(userID, chatID int64, messageID int, from viewKind) {
	b.viewsMu.Lock()
	defer b.viewsMu.Unlock()
	if v, ok := b.views[userID]; ok && v.messageID == messageID {
		return
	}
	b.views[userID] = &view{chatID: chatID, messageID: messageID, kind: from}
}

func (b *Bot) setView(userID int64, change func(v *view)) bool {
	b.viewsMu.Lock()
	defer b.viewsMu.Unlock()
	v, ok := b.views[userID]
	if !ok {
		return false
	}
	change(v)
	return true
}

func (b *Bot) render(sess *services.Session, userID int64, v *view) (string, tgbotapi.InlineKeyboardMarkup) {
	l := b.getLang(userID)
	cat := b.catalog.Current()
	switch v.kind {
	case viewFilters:
		return renderFilters(l, cat, sess.Filters())
	case viewCart:
		return renderCart(l, sess.Store)
	case viewFavorites:
		return renderFavorites(l, cat, sess.Store)
	default:
		text, kb, page := renderMenu(l, cat, sess, v.page)
		v.page = page
		return text, kb
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID
	from, action, arg := parseCallback(cq.Data)
	l := b.getLang(userID)
	toast := ""

	b.adoptView(userID, chatID, cq.Message.MessageID, from)

	sess, err := b.session(ctx, userID)
	if err != nil {
		log.Errorf("failed to open session for user %d: %v", userID, err)
		b.api.Request(tgbotapi.NewCallback(cq.ID, ""))
		return
	}
	cat := b.catalog.Current()

	switch action {
	case "lang":
		b.setLang(userID, arg)
		toast = lang.T(b.getLang(userID), "language_changed")
		b.refresh(userID)
	case "add":
		sess.AddByID(cat, arg)
		toast = lang.T(l, "added", itemName(cat, arg))
	case "rm":
		sess.Store.RemoveFromCart(arg)
		toast = lang.T(l, "removed", itemName(cat, arg))
	case "fav":
		if sess.ToggleFavoriteByID(arg) {
			toast = lang.T(l, "fav_on")
		} else {
			toast = lang.T(l, "fav_off")
		}
	case "clear":
		sess.Store.Clear()
	case "cat", "cui", "diet":
		f := sess.Filters()
		switch action {
		case "cat":
			f.Category = arg
		case "cui":
			f.Cuisine = arg
		default:
			f.Dietary = models.Dietary(arg)
		}
		sess.SetFilters(f)
		b.setView(userID, func(v *view) { v.kind = viewFilters })
		b.refresh(userID)
	case "reset":
		sess.SetFilters(services.DefaultFilters(b.cfg.Catalog.PriceCeiling))
		toast = lang.T(l, "filters_reset")
		b.setView(userID, func(v *view) { v.kind = viewMenu; v.page = 0 })
		b.refresh(userID)
	case "page":
		page, _ := strconv.Atoi(arg)
		b.setView(userID, func(v *view) { v.kind = viewMenu; v.page = page })
		b.refresh(userID)
	case "view":
		kind := viewKind(arg)
		b.setView(userID, func(v *view) { v.kind = kind; v.page = 0 })
		b.refresh(userID)
	case "noop":
	}

	b.api.Request(tgbotapi.NewCallback(cq.ID, toast))
}

func itemName(cat *services.Catalog, id string) string {
	if item, ok := cat.Get(id); ok {
		return item.Name
	}
	return id
}

// parseCallback splits data built by callback. Data without a view prefix, such
// as the language buttons, is treated as coming from the menu.
func parseCallback(data string) (from viewKind, action, arg string) {
	from = viewMenu
	if kind, rest, ok := strings.Cut(data, "|"); ok {
		switch viewKind(kind) {
		case viewMenu, viewFilters, viewCart, viewFavorites:
			from, data = viewKind(kind), rest
		}
	}
	action, arg, _ = strings.Cut(data, ":")
	return from, action, arg
}

func formatPrice(p int64) string {
	return fmt.Sprintf("₹%d", p)
}
