package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/services"
	"github.com/classbridge/classbridge-backend/internal/types"
)

type SyllabusHandler struct {
	log             *logger.Logger
	syllabusService services.SyllabusService
}

func NewSyllabusHandler(log *logger.Logger, syllabusService services.SyllabusService) *SyllabusHandler {
	return &SyllabusHandler{
		log:             log.With("handler", "SyllabusHandler"),
		syllabusService: syllabusService,
	}
}

func (h *SyllabusHandler) GetTree(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	tree, err := h.syllabusService.GetTree(c.Request.Context(), courseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, tree)
}

func (h *SyllabusHandler) AddModule(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var spec services.ModuleSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	module, err := h.syllabusService.AddModule(c.Request.Context(), courseID, spec)
	if err != nil {
		h.log.Error("AddModule failed", "error", err, "course_id", courseID)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"module": module})
}

func (h *SyllabusHandler) UpdateModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body struct {
		Title    *string `json:"title"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	module, err := h.syllabusService.UpdateModule(c.Request.Context(), moduleID, body.Title, body.IsActive)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"module": module})
}

func (h *SyllabusHandler) RemoveModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	manifest, err := h.syllabusService.RemoveModule(c.Request.Context(), moduleID)
	if err != nil {
		h.log.Error("RemoveModule failed", "error", err, "module_id", moduleID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": manifest})
}

func (h *SyllabusHandler) ReorderModules(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body struct {
		OrderedIDs []uuid.UUID `json:"ordered_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.syllabusService.ReorderModules(c.Request.Context(), courseID, body.OrderedIDs); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *SyllabusHandler) AddChapter(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var spec services.ChapterSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	chapter, err := h.syllabusService.AddChapter(c.Request.Context(), moduleID, spec)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"chapter": chapter})
}

func (h *SyllabusHandler) UpdateChapter(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var spec services.ChapterSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	chapter, err := h.syllabusService.UpdateChapter(c.Request.Context(), chapterID, spec)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

func (h *SyllabusHandler) RemoveChapter(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	manifest, err := h.syllabusService.RemoveChapter(c.Request.Context(), chapterID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": manifest})
}

func (h *SyllabusHandler) ReorderChapters(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body struct {
		OrderedIDs []uuid.UUID `json:"ordered_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.syllabusService.ReorderChapters(c.Request.Context(), moduleID, body.OrderedIDs); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *SyllabusHandler) AddArticle(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var spec services.ArticleSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	article, err := h.syllabusService.AddArticle(c.Request.Context(), chapterID, spec)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"article": article})
}

func (h *SyllabusHandler) UpdateArticle(c *gin.Context) {
	articleID, err := uuid.Parse(c.Param("articleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var spec services.ArticleSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	article, err := h.syllabusService.UpdateArticle(c.Request.Context(), articleID, spec)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"article": article})
}

func (h *SyllabusHandler) RemoveArticle(c *gin.Context) {
	articleID, err := uuid.Parse(c.Param("articleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.syllabusService.RemoveArticle(c.Request.Context(), articleID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

// AddContentItem accepts multipart form data for file and video variants
// and plain JSON-style form fields for link and text variants.
func (h *SyllabusHandler) AddContentItem(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	spec := services.ContentItemSpec{
		Type:  c.PostForm("type"),
		Title: c.PostForm("title"),
		Link:  c.PostForm("link"),
		Text:  c.PostForm("text"),
	}
	if spec.Type == types.ContentTypeFile || spec.Type == types.ContentTypeVideo {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
		defer f.Close()
		spec.Upload = &services.UploadRequest{
			Name:        fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Body:        f,
		}
	}
	item, err := h.syllabusService.AddContentItem(c.Request.Context(), moduleID, spec)
	if err != nil {
		h.log.Error("AddContentItem failed", "error", err, "module_id", moduleID, "type", spec.Type)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"item": item})
}

func (h *SyllabusHandler) ReplaceContentItemAsset(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	defer f.Close()
	item, err := h.syllabusService.ReplaceContentItemAsset(c.Request.Context(), itemID, services.UploadRequest{
		Name:        fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		h.log.Error("ReplaceContentItemAsset failed", "error", err, "item_id", itemID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"item": item})
}

func (h *SyllabusHandler) RemoveContentItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	manifest, err := h.syllabusService.RemoveContentItem(c.Request.Context(), itemID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": manifest})
}

func (h *SyllabusHandler) ReorderContentItems(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body struct {
		OrderedIDs []uuid.UUID `json:"ordered_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.syllabusService.ReorderContentItems(c.Request.Context(), moduleID, body.OrderedIDs); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}
