package bot

import (
	"fmt"
	"strconv"
	"strings"

	"campus-canteen/lang"
	"campus-canteen/models"
	"campus-canteen/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const pageSize = 6

// callback builds button data as "<view>|<action>:<arg>", where view is the
// kind of message the button is drawn on.
func callback(from viewKind, action, arg string) string {
	return string(from) + "|" + action + ":" + arg
}

func button(label string, from viewKind, action, arg string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, callback(from, action, arg))
}

func navRow(l string, from viewKind) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		button(lang.T(l, "view_menu"), from, "view", string(viewMenu)),
		button(lang.T(l, "view_cart"), from, "view", string(viewCart)),
		button(lang.T(l, "view_favorites"), from, "view", string(viewFavorites)),
	)
}

// renderMenu draws one page of the visible items. Each row reads its own quantity
// and favorite flag from the session store. The page is clamped and returned.
func renderMenu(l string, cat *services.Catalog, sess *services.Session, page int) (string, tgbotapi.InlineKeyboardMarkup, int) {
	filters := sess.Filters()
	items := cat.Visible(filters)
	store := sess.Store

	pages := (len(items) + pageSize - 1) / pageSize
	if pages == 0 {
		pages = 1
	}
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}

	var sb strings.Builder
	sb.WriteString(lang.T(l, "menu_header"))
	if n := store.ItemCount(); n > 0 {
		fmt.Fprintf(&sb, "  🛒 %s · %s", lang.T(l, "items_in_cart", n), formatPrice(store.CartTotal()))
	}
	sb.WriteString("\n")
	sb.WriteString(describeFilters(l, filters))
	sb.WriteString("\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(items) == 0 {
		sb.WriteString(lang.T(l, "menu_empty"))
	}
	start := page * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	for _, item := range items[start:end] {
		sb.WriteString(describeItem(l, item, store.CartQuantity(item.ID), store.IsFavorite(item.ID)))
		sb.WriteString("\n")
		rows = append(rows, itemRow(viewMenu, item, store.CartQuantity(item.ID), store.IsFavorite(item.ID)))
	}
	if pages > 1 {
		sb.WriteString("\n" + lang.T(l, "page", page+1, pages))
		var pager []tgbotapi.InlineKeyboardButton
		if page > 0 {
			pager = append(pager, button("◀️", viewMenu, "page", strconv.Itoa(page-1)))
		}
		if page < pages-1 {
			pager = append(pager, button("▶️", viewMenu, "page", strconv.Itoa(page+1)))
		}
		rows = append(rows, pager)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("⚙️ "+lang.T(l, "filters"), viewMenu, "view", string(viewFilters)),
		button(lang.T(l, "view_cart"), viewMenu, "view", string(viewCart)),
	))
	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...), page
}

func itemRow(from viewKind, item models.MenuItem, qty int, favorite bool) []tgbotapi.InlineKeyboardButton {
	heart := "🤍"
	if favorite {
		heart = "❤️"
	}
	label := fmt.Sprintf("%s %s", item.Name, formatPrice(item.Price))
	if qty > 0 {
		return tgbotapi.NewInlineKeyboardRow(
			button("➖", from, "rm", item.ID),
			button(fmt.Sprintf("%s ×%d", label, qty), from, "noop", ""),
			button("➕", from, "add", item.ID),
			button(heart, from, "fav", item.ID),
		)
	}
	return tgbotapi.NewInlineKeyboardRow(
		button("🛒 "+label, from, "add", item.ID),
		button(heart, from, "fav", item.ID),
	)
}

func describeItem(l string, item models.MenuItem, qty int, favorite bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "• %s — %s", item.Name, formatPrice(item.Price))
	if item.IsVegetarian {
		sb.WriteString(" 🌱")
	}
	if s := item.Spice(); s > 0 {
		sb.WriteString(" " + strings.Repeat("🌶", s))
	}
	if item.PreparationTime > 0 {
		sb.WriteString(" ⏱" + lang.T(l, "prep_minutes", item.PreparationTime))
	}
	if item.ReviewCount > 0 {
		fmt.Fprintf(&sb, " ⭐%.1f (%d)", item.Rating, item.ReviewCount)
	}
	if favorite {
		sb.WriteString(" ❤️")
	}
	if qty > 0 {
		fmt.Fprintf(&sb, " ×%d", qty)
	}
	if item.Description != "" {
		sb.WriteString("\n   " + item.Description)
	}
	if len(item.Allergens) > 0 {
		sb.WriteString("\n   ⚠️ " + strings.Join(item.Allergens, ", "))
	}
	return sb.String()
}

func describeFilters(l string, f models.FilterState) string {
	parts := []string{
		fmt.Sprintf("%s: %s", lang.T(l, "filter_category"), optionLabel(l, f.Category)),
		fmt.Sprintf("%s: %s", lang.T(l, "filter_cuisine"), optionLabel(l, f.Cuisine)),
		fmt.Sprintf("%s: %s", lang.T(l, "filter_dietary"), dietaryLabel(l, f.Dietary)),
		fmt.Sprintf("%s: %s–%s", lang.T(l, "filter_price"), formatPrice(f.PriceMin), formatPrice(f.PriceMax)),
		fmt.Sprintf("%s: %d", lang.T(l, "filter_spice"), f.SpiceLimit()),
	}
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("%s: %q", lang.T(l, "filter_search"), f.Search))
	}
	return strings.Join(parts, " | ")
}

func optionLabel(l, v string) string {
	if v == models.Wildcard {
		return lang.T(l, "all")
	}
	return v
}

func dietaryLabel(l string, d models.Dietary) string {
	switch d {
	case models.DietaryVeg:
		return lang.T(l, "diet_veg")
	case models.DietaryNonVeg:
		return lang.T(l, "diet_nonveg")
	default:
		return lang.T(l, "diet_all")
	}
}

func mark(selected bool, label string) string {
	if selected {
		return "✅ " + label
	}
	return label
}

// renderFilters offers every category and cuisine present in the catalog.
func renderFilters(l string, cat *services.Catalog, f models.FilterState) (string, tgbotapi.InlineKeyboardMarkup) {
	var rows [][]tgbotapi.InlineKeyboardButton

	rows = append(rows, optionRows("cat", cat.Categories(), f.Category, l)...)
	rows = append(rows, optionRows("cui", cat.Cuisines(), f.Cuisine, l)...)

	var diet []tgbotapi.InlineKeyboardButton
	for _, d := range []models.Dietary{models.DietaryAll, models.DietaryVeg, models.DietaryNonVeg} {
		diet = append(diet, button(mark(f.Dietary == d, dietaryLabel(l, d)), viewFilters, "diet", string(d)))
	}
	rows = append(rows, diet)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button(lang.T(l, "reset_filters"), viewFilters, "reset", ""),
		button(lang.T(l, "back"), viewFilters, "view", string(viewMenu)),
	))

	text := "⚙️ " + lang.T(l, "filters") + "\n" + describeFilters(l, f)
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func optionRows(prefix string, options []string, selected, l string) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, opt := range options {
		row = append(row, button(mark(opt == selected, optionLabel(l, opt)), viewFilters, prefix, opt))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func renderCart(l string, store *services.Store) (string, tgbotapi.InlineKeyboardMarkup) {
	lines := store.Lines()
	var sb strings.Builder
	sb.WriteString("🛒 " + lang.T(l, "cart_label") + "\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(lines) == 0 {
		sb.WriteString(lang.T(l, "cart_empty"))
	}
	for _, line := range lines {
		name := line.Name
		if name == "" {
			name = line.ItemID
		}
		fmt.Fprintf(&sb, "• %s × %d — %s\n", name, line.Quantity, formatPrice(line.Subtotal()))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("➖", viewCart, "rm", line.ItemID),
			button(fmt.Sprintf("%s ×%d", name, line.Quantity), viewCart, "noop", ""),
			button("➕", viewCart, "add", line.ItemID),
		))
	}
	if len(lines) > 0 {
		fmt.Fprintf(&sb, "\n%s: %s", lang.T(l, "total"), formatPrice(store.CartTotal()))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(lang.T(l, "clear_cart"), viewCart, "clear", ""),
		))
	}
	rows = append(rows, navRow(l, viewCart))
	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func renderFavorites(l string, cat *services.Catalog, store *services.Store) (string, tgbotapi.InlineKeyboardMarkup) {
	favs := store.Favorites()
	var sb strings.Builder
	sb.WriteString("❤️ " + lang.T(l, "favorites_label") + "\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(favs) == 0 {
		sb.WriteString(lang.T(l, "favorites_empty"))
	}
	for _, id := range favs {
		item, ok := cat.Get(id)
		if !ok {
			item = models.MenuItem{ID: id, Name: id}
		}
		qty := store.CartQuantity(id)
		sb.WriteString(describeItem(l, item, qty, true))
		sb.WriteString("\n")
		rows = append(rows, itemRow(viewFavorites, item, qty, true))
	}
	rows = append(rows, navRow(l, viewFavorites))
	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}
