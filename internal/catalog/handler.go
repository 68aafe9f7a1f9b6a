package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/genres", h.genres)               // GET /api/genres
	rg.GET("/decades", h.decades)             // GET /api/decades
	rg.GET("/works", h.works)                 // GET /api/works?keyword=&type=&decade=
	rg.GET("/composers", h.composers)         // GET /api/composers
	rg.GET("/composers/:id", h.composerByID)  // GET /api/composers/:id
}

func (h *Handler) genres(c *gin.Context) {
	genres, err := h.Repo.Genres(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch genres"})
		return
	}
	c.JSON(http.StatusOK, genres)
}

func (h *Handler) decades(c *gin.Context) {
	decades, err := h.Repo.Decades(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch decades"})
		return
	}
	c.JSON(http.StatusOK, decades)
}

func (h *Handler) works(c *gin.Context) {
	f := Filter{
		Keyword: c.Query("keyword"),
		Genre:   c.DefaultQuery("type", "all"),
		Decade:  c.DefaultQuery("decade", "all"),
	}

	works, err := h.Repo.ListWorks(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch works"})
		return
	}
	c.JSON(http.StatusOK, works)
}

func (h *Handler) composers(c *gin.Context) {
	composers, err := h.Repo.Composers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch composers"})
		return
	}

	// front-end compatible shape: id + name only
	out := make([]gin.H, 0, len(composers))
	for _, comp := range composers {
		out = append(out, gin.H{"id": comp.ComposerID, "name": comp.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) composerByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "composer id must be an integer"})
		return
	}

	detail, err := h.Repo.ComposerDetail(c.Request.Context(), id)
	if errors.Is(err, ErrComposerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "composer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch composer detail"})
		return
	}
	c.JSON(http.StatusOK, detail)
}
