package api

import (
	"net/http"
	"strconv"

	"campus-canteen/models"
	"campus-canteen/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const sessionHeader = "X-Session-ID"

type Handler struct {
	catalog      *services.CatalogHolder
	sessions     *services.SessionManager
	priceCeiling int64
}

func NewHandler(catalog *services.CatalogHolder, sessions *services.SessionManager, priceCeiling int64) *Handler {
	return &Handler{catalog: catalog, sessions: sessions, priceCeiling: priceCeiling}
}

type menuRow struct {
	models.MenuItem
	Quantity int  `json:"quantity"`
	Favorite bool `json:"favorite"`
}

type cartResponse struct {
	Lines     []models.CartLine `json:"lines"`
	Total     int64             `json:"total"`
	ItemCount int               `json:"itemCount"`
}

func cartView(store *services.Store) cartResponse {
	return cartResponse{
		Lines:     store.Lines(),
		Total:     store.CartTotal(),
		ItemCount: store.ItemCount(),
	}
}

// session resolves the X-Session-ID header; it writes the error response itself.
func (h *Handler) session(c *gin.Context) (*services.Session, bool) {
	id := c.GetHeader(sessionHeader)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": sessionHeader + " header is required"})
		return nil, false
	}
	sess, err := h.sessions.Get(id)
	if errors.Is(err, services.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}

func (h *Handler) CreateSession(c *gin.Context) {
	sess, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID,
		"filters":    sess.Filters(),
	})
}

func (h *Handler) EndSession(c *gin.Context) {
	err := h.sessions.End(c.Request.Context(), c.Param("id"))
	if errors.Is(err, services.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// filtersFromQuery overlays query parameters on base. Unparseable numbers are
// ignored; out-of-range values are clamped by NormalizeFilters.
func filtersFromQuery(c *gin.Context, base models.FilterState) models.FilterState {
	f := base
	if v, ok := c.GetQuery("search"); ok {
		f.Search = v
	}
	if v, ok := c.GetQuery("category"); ok {
		f.Category = v
	}
	if v, ok := c.GetQuery("cuisine"); ok {
		f.Cuisine = v
	}
	if v, ok := c.GetQuery("dietary"); ok {
		f.Dietary = models.Dietary(v)
	}
	if n, err := strconv.ParseInt(c.Query("min_price"), 10, 64); err == nil {
		f.PriceMin = n
	}
	if n, err := strconv.ParseInt(c.Query("max_price"), 10, 64); err == nil {
		f.PriceMax = n
	}
	if v, ok := c.GetQuery("max_spice"); ok {
		if v == models.Wildcard {
			f.MaxSpice = nil
		} else if n, err := strconv.Atoi(v); err == nil {
			f.MaxSpice = models.SpiceCap(n)
		}
	}
	return f
}

// Menu returns the visible items for the session's filters, each row carrying
// that session's quantity and favorite flag.
func (h *Handler) Menu(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	filters := sess.SetFilters(filtersFromQuery(c, sess.Filters()))
	items := h.catalog.Current().Visible(filters)

	rows := make([]menuRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, menuRow{
			MenuItem: item,
			Quantity: sess.Store.CartQuantity(item.ID),
			Favorite: sess.Store.IsFavorite(item.ID),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   rows,
		"filters": filters,
		"cart":    gin.H{"itemCount": sess.Store.ItemCount(), "total": sess.Store.CartTotal()},
	})
}

func (h *Handler) MenuOptions(c *gin.Context) {
	cat := h.catalog.Current()
	c.JSON(http.StatusOK, gin.H{
		"categories": cat.Categories(),
		"cuisines":   cat.Cuisines(),
		"dietary":    []models.Dietary{models.DietaryAll, models.DietaryVeg, models.DietaryNonVeg},
		"defaults":   services.DefaultFilters(h.priceCeiling),
	})
}

func (h *Handler) Cart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartView(sess.Store))
}

func (h *Handler) AddToCart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.AddByID(h.catalog.Current(), c.Param("id"))
	c.JSON(http.StatusOK, cartView(sess.Store))
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Store.RemoveFromCart(c.Param("id"))
	c.JSON(http.StatusOK, cartView(sess.Store))
}

func (h *Handler) SetCartQuantity(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Quantity *float64 `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}
	qty, err := services.ParseQuantity(strconv.FormatFloat(*req.Quantity, 'f', -1, 64))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess.SetQuantityByID(h.catalog.Current(), c.Param("id"), qty)
	c.JSON(http.StatusOK, cartView(sess.Store))
}

func (h *Handler) ClearCart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Store.Clear()
	c.JSON(http.StatusOK, cartView(sess.Store))
}

func (h *Handler) Favorites(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": sess.Store.Favorites()})
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	id := c.Param("id")
	fav := sess.ToggleFavoriteByID(id)
	c.JSON(http.StatusOK, gin.H{"id": id, "favorite": fav})
}
