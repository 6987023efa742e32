package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/apierr"
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/repos"
	"github.com/classbridge/classbridge-backend/internal/requestdata"
	"github.com/classbridge/classbridge-backend/internal/types"
)

// ChapterSpec is the create payload for a chapter.
type ChapterSpec struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Links       []string `json:"links,omitempty"`
}

// ArticleSpec is the create payload for an article.
type ArticleSpec struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ContentItemSpec describes one content item of any variant. File and video
// variants carry an upload; link carries a URL; text carries a body.
type ContentItemSpec struct {
	Type  string `json:"type"`
	Title string `json:"title"`

	Upload *UploadRequest `json:"-"`
	Link   string         `json:"link,omitempty"`
	Text   string         `json:"text,omitempty"`
}

// SyllabusTree is the fully resolved content tree for one course.
type SyllabusTree struct {
	Syllabus *types.Syllabus       `json:"syllabus"`
	Modules  []*SyllabusTreeModule `json:"modules"`
}

type SyllabusTreeModule struct {
	Module   *types.SyllabusModule  `json:"module"`
	Chapters []*SyllabusTreeChapter `json:"chapters"`
	Items    []*types.ContentItem   `json:"items"`
}

type SyllabusTreeChapter struct {
	Chapter  *types.Chapter   `json:"chapter"`
	Articles []*types.Article `json:"articles"`
}

// SyllabusService manages the module -> chapter -> {article, content item}
// tree under a course. Structural writes run in one transaction; blob
// uploads happen before the transaction and orphans are handed to the
// cleanup service when the write fails.
type SyllabusService interface {
	GetTree(ctx context.Context, courseID uuid.UUID) (*SyllabusTree, error)

	AddModule(ctx context.Context, courseID uuid.UUID, spec ModuleSpec) (*types.SyllabusModule, error)
	UpdateModule(ctx context.Context, moduleID uuid.UUID, title *string, isActive *bool) (*types.SyllabusModule, error)
	RemoveModule(ctx context.Context, moduleID uuid.UUID) (*types.DeleteManifest, error)
	ReorderModules(ctx context.Context, courseID uuid.UUID, orderedIDs []uuid.UUID) error

	AddChapter(ctx context.Context, moduleID uuid.UUID, spec ChapterSpec) (*types.Chapter, error)
	UpdateChapter(ctx context.Context, chapterID uuid.UUID, spec ChapterSpec) (*types.Chapter, error)
	RemoveChapter(ctx context.Context, chapterID uuid.UUID) (*types.DeleteManifest, error)
	ReorderChapters(ctx context.Context, moduleID uuid.UUID, orderedIDs []uuid.UUID) error

	AddArticle(ctx context.Context, chapterID uuid.UUID, spec ArticleSpec) (*types.Article, error)
	UpdateArticle(ctx context.Context, articleID uuid.UUID, spec ArticleSpec) (*types.Article, error)
	RemoveArticle(ctx context.Context, articleID uuid.UUID) error

	AddContentItem(ctx context.Context, moduleID uuid.UUID, spec ContentItemSpec) (*types.ContentItem, error)
	ReplaceContentItemAsset(ctx context.Context, itemID uuid.UUID, upload UploadRequest) (*types.ContentItem, error)
	RemoveContentItem(ctx context.Context, itemID uuid.UUID) (*types.DeleteManifest, error)
	ReorderContentItems(ctx context.Context, moduleID uuid.UUID, orderedIDs []uuid.UUID) error
}

type syllabusService struct {
	db  *gorm.DB
	log *logger.Logger

	teacherRepo  repos.TeacherRepo
	courseRepo   repos.CourseRepo
	syllabusRepo repos.SyllabusRepo
	moduleRepo   repos.SyllabusModuleRepo
	chapterRepo  repos.ChapterRepo
	articleRepo  repos.ArticleRepo
	itemRepo     repos.ContentItemRepo

	files   FileService
	cleanup CleanupService
}

func NewSyllabusService(
	db *gorm.DB,
	baseLog *logger.Logger,
	teacherRepo repos.TeacherRepo,
	courseRepo repos.CourseRepo,
	syllabusRepo repos.SyllabusRepo,
	moduleRepo repos.SyllabusModuleRepo,
	chapterRepo repos.ChapterRepo,
	articleRepo repos.ArticleRepo,
	itemRepo repos.ContentItemRepo,
	files FileService,
	cleanup CleanupService,
) SyllabusService {
	return &syllabusService{
		db:           db,
		log:          baseLog.With("service", "SyllabusService"),
		teacherRepo:  teacherRepo,
		courseRepo:   courseRepo,
		syllabusRepo: syllabusRepo,
		moduleRepo:   moduleRepo,
		chapterRepo:  chapterRepo,
		articleRepo:  articleRepo,
		itemRepo:     itemRepo,
		files:        files,
		cleanup:      cleanup,
	}
}

func (ss *syllabusService) GetTree(ctx context.Context, courseID uuid.UUID) (*SyllabusTree, error) {
	syllabi, err := ss.syllabusRepo.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load syllabus: %w", err)
	}
	if len(syllabi) == 0 || syllabi[0] == nil {
		return nil, apierr.NotFound("course %s has no syllabus", courseID)
	}
	syllabus := syllabi[0]

	modules, err := ss.moduleRepo.GetBySyllabusIDs(ctx, nil, []uuid.UUID{syllabus.ID})
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	moduleIDs := make([]uuid.UUID, 0, len(modules))
	for _, m := range modules {
		if m != nil {
			moduleIDs = append(moduleIDs, m.ID)
		}
	}
	chapters, err := ss.chapterRepo.GetByModuleIDs(ctx, nil, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}
	chapterIDs := make([]uuid.UUID, 0, len(chapters))
	for _, c := range chapters {
		if c != nil {
			chapterIDs = append(chapterIDs, c.ID)
		}
	}
	articles, err := ss.articleRepo.GetByChapterIDs(ctx, nil, chapterIDs)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	items, err := ss.itemRepo.GetByModuleIDs(ctx, nil, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("load content items: %w", err)
	}

	articlesByChapter := map[uuid.UUID][]*types.Article{}
	for _, a := range articles {
		if a != nil {
			articlesByChapter[a.ChapterID] = append(articlesByChapter[a.ChapterID], a)
		}
	}
	chaptersByModule := map[uuid.UUID][]*SyllabusTreeChapter{}
	for _, c := range chapters {
		if c != nil {
			chaptersByModule[c.ModuleID] = append(chaptersByModule[c.ModuleID], &SyllabusTreeChapter{
				Chapter:  c,
				Articles: articlesByChapter[c.ID],
			})
		}
	}
	itemsByModule := map[uuid.UUID][]*types.ContentItem{}
	for _, it := range items {
		if it != nil {
			itemsByModule[it.ModuleID] = append(itemsByModule[it.ModuleID], it)
		}
	}

	tree := &SyllabusTree{Syllabus: syllabus}
	for _, m := range modules {
		if m == nil {
			continue
		}
		tree.Modules = append(tree.Modules, &SyllabusTreeModule{
			Module:   m,
			Chapters: chaptersByModule[m.ID],
			Items:    itemsByModule[m.ID],
		})
	}
	return tree, nil
}

func (ss *syllabusService) AddModule(ctx context.Context, courseID uuid.UUID, spec ModuleSpec) (*types.SyllabusModule, error) {
	if strings.TrimSpace(spec.Title) == "" {
		return nil, apierr.Validation("module title is required")
	}
	var module *types.SyllabusModule
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.authorizeCourse(ctx, tx, courseID); err != nil {
			return err
		}
		syllabus, err := ss.ensureSyllabus(ctx, tx, courseID)
		if err != nil {
			return err
		}
		siblings, err := ss.moduleRepo.GetBySyllabusIDs(ctx, tx, []uuid.UUID{syllabus.ID})
		if err != nil {
			return fmt.Errorf("load modules: %w", err)
		}
		maxOrder := 0
		for _, m := range siblings {
			if m == nil {
				continue
			}
			if m.ModuleNumber == spec.ModuleNumber {
				return apierr.Conflict(apierr.CodeDuplicateModuleNumber,
					"module number %d already exists in this syllabus", spec.ModuleNumber)
			}
			if m.Order > maxOrder {
				maxOrder = m.Order
			}
		}
		module = &types.SyllabusModule{
			ID:           uuid.New(),
			SyllabusID:   syllabus.ID,
			ModuleNumber: spec.ModuleNumber,
			Title:        strings.TrimSpace(spec.Title),
			IsActive:     true,
			Order:        maxOrder + 1,
		}
		if _, err := ss.moduleRepo.Create(ctx, tx, []*types.SyllabusModule{module}); err != nil {
			return fmt.Errorf("create module: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return module, nil
}

func (ss *syllabusService) UpdateModule(ctx context.Context, moduleID uuid.UUID, title *string, isActive *bool) (*types.SyllabusModule, error) {
	var module *types.SyllabusModule
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		module, _, err = ss.loadModuleAuthorized(ctx, tx, moduleID)
		if err != nil {
			return err
		}
		fields := map[string]interface{}{}
		if title != nil {
			if strings.TrimSpace(*title) == "" {
				return apierr.Validation("module title cannot be empty")
			}
			fields["title"] = strings.TrimSpace(*title)
			module.Title = fields["title"].(string)
		}
		if isActive != nil {
			fields["is_active"] = *isActive
			module.IsActive = *isActive
		}
		if len(fields) == 0 {
			return nil
		}
		return ss.moduleRepo.UpdateFields(ctx, tx, module.ID, fields)
	})
	if err != nil {
		return nil, err
	}
	return module, nil
}

// RemoveModule deletes the module and everything under it: chapters with
// their articles, and the module's content items. Blob keys come back in
// the manifest and are cleaned up after commit.
func (ss *syllabusService) RemoveModule(ctx context.Context, moduleID uuid.UUID) (*types.DeleteManifest, error) {
	manifest := types.NewDeleteManifest()
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		module, _, err := ss.loadModuleAuthorized(ctx, tx, moduleID)
		if err != nil {
			return err
		}

		chapters, err := ss.chapterRepo.GetByModuleIDs(ctx, tx, []uuid.UUID{module.ID})
		if err != nil {
			return fmt.Errorf("load chapters: %w", err)
		}
		chapterIDs := make([]uuid.UUID, 0, len(chapters))
		for _, c := range chapters {
			if c != nil {
				chapterIDs = append(chapterIDs, c.ID)
			}
		}
		items, err := ss.itemRepo.GetByModuleIDs(ctx, tx, []uuid.UUID{module.ID})
		if err != nil {
			return fmt.Errorf("load content items: %w", err)
		}
		itemIDs := make([]uuid.UUID, 0, len(items))
		for _, it := range items {
			if it == nil {
				continue
			}
			itemIDs = append(itemIDs, it.ID)
			manifest.AddKeys(it.BlobKeys()...)
		}

		articleCount, err := ss.articleRepo.DeleteByChapterIDs(ctx, tx, chapterIDs)
		if err != nil {
			return fmt.Errorf("delete articles: %w", err)
		}
		if err := ss.itemRepo.DeleteByIDs(ctx, tx, itemIDs); err != nil {
			return fmt.Errorf("delete content items: %w", err)
		}
		if err := ss.chapterRepo.DeleteByIDs(ctx, tx, chapterIDs); err != nil {
			return fmt.Errorf("delete chapters: %w", err)
		}
		if err := ss.moduleRepo.DeleteByIDs(ctx, tx, []uuid.UUID{module.ID}); err != nil {
			return fmt.Errorf("delete module: %w", err)
		}

		manifest.Count("modules", 1)
		manifest.Count("chapters", len(chapterIDs))
		manifest.Count("articles", int(articleCount))
		manifest.Count("content_items", len(itemIDs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	ss.cleanup.Run(ctx, manifest)
	return manifest, nil
}

func (ss *syllabusService) ReorderModules(ctx context.Context, courseID uuid.UUID, orderedIDs []uuid.UUID) error {
	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.authorizeCourse(ctx, tx, courseID); err != nil {
			return err
		}
		syllabi, err := ss.syllabusRepo.GetByCourseIDs(ctx, tx, []uuid.UUID{courseID})
		if err != nil {
			return fmt.Errorf("load syllabus: %w", err)
		}
		if len(syllabi) == 0 || syllabi[0] == nil {
			return apierr.NotFound("course %s has no syllabus", courseID)
		}
		modules, err := ss.moduleRepo.GetBySyllabusIDs(ctx, tx, []uuid.UUID{syllabi[0].ID})
		if err != nil {
			return fmt.Errorf("load modules: %w", err)
		}
		existing := map[uuid.UUID]bool{}
		for _, m := range modules {
			if m != nil {
				existing[m.ID] = true
			}
		}
		if err := validateReorderSet(existing, orderedIDs); err != nil {
			return err
		}
		for i, id := range orderedIDs {
			if err := ss.moduleRepo.UpdateFields(ctx, tx, id, map[string]interface{}{"item_order": i + 1}); err != nil {
				return fmt.Errorf("reorder module %s: %w", id, err)
			}
		}
		return nil
	})
}

func (ss *syllabusService) AddChapter(ctx context.Context, moduleID uuid.UUID, spec ChapterSpec) (*types.Chapter, error) {
	if strings.TrimSpace(spec.Title) == "" {
		return nil, apierr.Validation("chapter title is required")
	}
	links := datatypes.JSONSlice[string]{}
	for _, l := range spec.Links {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		links = append(links, l)
	}
	var chapter *types.Chapter
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		module, _, err := ss.loadModuleAuthorized(ctx, tx, moduleID)
		if err != nil {
			return err
		}
		siblings, err := ss.chapterRepo.GetByModuleIDs(ctx, tx, []uuid.UUID{module.ID})
		if err != nil {
			return fmt.Errorf("load chapters: %w", err)
		}
		chapter = &types.Chapter{
			ID:          uuid.New(),
			ModuleID:    module.ID,
			Title:       strings.TrimSpace(spec.Title),
			Description: strings.TrimSpace(spec.Description),
			Order:       maxChapterOrder(siblings) + 1,
			Links:       links,
		}
		if _, err := ss.chapterRepo.Create(ctx, tx, []*types.Chapter{chapter}); err != nil {
			return fmt.Errorf("create chapter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chapter, nil
}

func (ss *syllabusService) UpdateChapter(ctx context.Context, chapterID uuid.UUID, spec ChapterSpec) (*types.Chapter, error) {
	var chapter *types.Chapter
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		chapter, err = ss.loadChapterAuthorized(ctx, tx, chapterID)
		if err != nil {
			return err
		}
		fields := map[string]interface{}{}
		if strings.TrimSpace(spec.Title) != "" {
			fields["title"] = strings.TrimSpace(spec.Title)
			chapter.Title = fields["title"].(string)
		}
		if spec.Description != "" {
			fields["description"] = strings.TrimSpace(spec.Description)
			chapter.Description = fields["description"].(string)
		}
		if spec.Links != nil {
			links := datatypes.JSONSlice[string]{}
			for _, l := range spec.Links {
				if strings.TrimSpace(l) != "" {
					links = append(links, strings.TrimSpace(l))
				}
			}
			fields["links"] = links
			chapter.Links = links
		}
		if len(fields) == 0 {
			return nil
		}
		return ss.chapterRepo.UpdateFields(ctx, tx, chapter.ID, fields)
	})
	if err != nil {
		return nil, err
	}
	return chapter, nil
}

func (ss *syllabusService) RemoveChapter(ctx context.Context, chapterID uuid.UUID) (*types.DeleteManifest, error) {
	manifest := types.NewDeleteManifest()
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chapter, err := ss.loadChapterAuthorized(ctx, tx, chapterID)
		if err != nil {
			return err
		}
		articleCount, err := ss.articleRepo.DeleteByChapterIDs(ctx, tx, []uuid.UUID{chapter.ID})
		if err != nil {
			return fmt.Errorf("delete articles: %w", err)
		}
		if err := ss.chapterRepo.DeleteByIDs(ctx, tx, []uuid.UUID{chapter.ID}); err != nil {
			return fmt.Errorf("delete chapter: %w", err)
		}
		manifest.Count("chapters", 1)
		manifest.Count("articles", int(articleCount))
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Chapters hold raw links only; there are no blobs to clean up.
	return manifest, nil
}

func (ss *syllabusService) ReorderChapters(ctx context.Context, moduleID uuid.UUID, orderedIDs []uuid.UUID) error {
	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		module, _, err := ss.loadModuleAuthorized(ctx, tx, moduleID)
		if err != nil {
			return err
		}
		chapters, err := ss.chapterRepo.GetByModuleIDs(ctx, tx, []uuid.UUID{module.ID})
		if err != nil {
			return fmt.Errorf("load chapters: %w", err)
		}
		existing := map[uuid.UUID]bool{}
		for _, c := range chapters {
			if c != nil {
				existing[c.ID] = true
			}
		}
		if err := validateReorderSet(existing, orderedIDs); err != nil {
			return err
		}
		for i, id := range orderedIDs {
			if err := ss.chapterRepo.UpdateFields(ctx, tx, id, map[string]interface{}{"item_order": i + 1}); err != nil {
				return fmt.Errorf("reorder chapter %s: %w", id, err)
			}
		}
		return nil
	})
}

func (ss *syllabusService) AddArticle(ctx context.Context, chapterID uuid.UUID, spec ArticleSpec) (*types.Article, error) {
	if strings.TrimSpace(spec.Title) == "" {
		return nil, apierr.Validation("article title is required")
	}
	var article *types.Article
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chapter, err := ss.loadChapterAuthorized(ctx, tx, chapterID)
		if err != nil {
			return err
		}
		siblings, err := ss.articleRepo.GetByChapterIDs(ctx, tx, []uuid.UUID{chapter.ID})
		if err != nil {
			return fmt.Errorf("load articles: %w", err)
		}
		maxOrder := 0
		for _, a := range siblings {
			if a != nil && a.Order > maxOrder {
				maxOrder = a.Order
			}
		}
		article = &types.Article{
			ID:        uuid.New(),
			ChapterID: chapter.ID,
			Title:     strings.TrimSpace(spec.Title),
			Body:      spec.Body,
			Order:     maxOrder + 1,
		}
		if _, err := ss.articleRepo.Create(ctx, tx, []*types.Article{article}); err != nil {
			return fmt.Errorf("create article: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (ss *syllabusService) UpdateArticle(ctx context.Context, articleID uuid.UUID, spec ArticleSpec) (*types.Article, error) {
	var article *types.Article
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		article, err = ss.loadArticleAuthorized(ctx, tx, articleID)
		if err != nil {
			return err
		}
		fields := map[string]interface{}{}
		if strings.TrimSpace(spec.Title) != "" {
			fields["title"] = strings.TrimSpace(spec.Title)
			article.Title = fields["title"].(string)
		}
		if spec.Body != "" {
			fields["body"] = spec.Body
			article.Body = spec.Body
		}
		if len(fields) == 0 {
			return nil
		}
		return ss.articleRepo.UpdateFields(ctx, tx, article.ID, fields)
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (ss *syllabusService) RemoveArticle(ctx context.Context, articleID uuid.UUID) error {
	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		article, err := ss.loadArticleAuthorized(ctx, tx, articleID)
		if err != nil {
			return err
		}
		// Single-row delete through the chapter-scoped path keeps the repo
		// surface small.
		res := txOrDB(tx, ss.db).WithContext(ctx).
			Where("id = ?", article.ID).
			Delete(&types.Article{})
		if res.Error != nil {
			return fmt.Errorf("delete article: %w", res.Error)
		}
		return nil
	})
}

func (ss *syllabusService) AddContentItem(ctx context.Context, moduleID uuid.UUID, spec ContentItemSpec) (*types.ContentItem, error) {
	var uploaded *types.UploadedObject

	var item *types.ContentItem
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		module, courseID, err := ss.loadModuleAuthorized(ctx, tx, moduleID)
		if err != nil {
			return err
		}

		switch spec.Type {
		case types.ContentTypeFile, types.ContentTypeVideo:
			if spec.Upload == nil {
				return apierr.Validation("%s content item requires an upload", spec.Type)
			}
			obj, err := ss.files.Upload(ctx, courseID, *spec.Upload)
			if err != nil {
				return err
			}
			uploaded = obj
			if spec.Type == types.ContentTypeFile {
				item, err = types.NewFileContentItem(module.ID, spec.Title, *obj)
			} else {
				item, err = types.NewVideoContentItem(module.ID, spec.Title, *obj)
			}
			if err != nil {
				return apierr.Validation("%s", err.Error())
			}
		case types.ContentTypeLink:
			item, err = types.NewLinkContentItem(module.ID, spec.Title, spec.Link)
			if err != nil {
				return apierr.Validation("%s", err.Error())
			}
		case types.ContentTypeText:
			item, err = types.NewTextContentItem(module.ID, spec.Title, spec.Text)
			if err != nil {
				return apierr.Validation("%s", err.Error())
			}
		default:
			return apierr.Validation("unknown content item type %q", spec.Type)
		}

		siblings, err := ss.itemRepo.GetByModuleIDs(ctx, tx, []uuid.UUID{module.ID})
		if err != nil {
			return fmt.Errorf("load content items: %w", err)
		}
		// Order is numbered within the item's own type, not across the
		// whole module.
		item.Order = maxItemOrder(siblings, spec.Type) + 1

		if _, err := ss.itemRepo.Create(ctx, tx, []*types.ContentItem{item}); err != nil {
			return fmt.Errorf("create content item: %w", err)
		}
		return nil
	})
	if err != nil {
		// The blob is already in the bucket when the write fails; reclaim it.
		if uploaded != nil {
			orphans := types.NewDeleteManifest()
			orphans.AddKeys(uploaded.Key)
			ss.cleanup.Run(ctx, orphans)
		}
		return nil, err
	}
	return item, nil
}

// ReplaceContentItemAsset swaps the stored blob behind a file or video item.
// The old blob is released only after the row update commits.
func (ss *syllabusService) ReplaceContentItemAsset(ctx context.Context, itemID uuid.UUID, upload UploadRequest) (*types.ContentItem, error) {
	var uploaded *types.UploadedObject
	var oldKeys []string

	var item *types.ContentItem
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var courseID uuid.UUID
		var err error
		item, courseID, err = ss.loadItemAuthorized(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.Type != types.ContentTypeFile && item.Type != types.ContentTypeVideo {
			return apierr.Validation("content item %s has no stored asset", itemID)
		}

		obj, err := ss.files.Upload(ctx, courseID, upload)
		if err != nil {
			return err
		}
		uploaded = obj
		oldKeys = item.BlobKeys()

		fields := map[string]interface{}{}
		if item.Type == types.ContentTypeFile {
			fields["file_url"] = obj.URL
			fields["file_key"] = obj.Key
			fields["file_name"] = obj.Name
			fields["file_size"] = obj.Size
			item.FileURL, item.FileKey, item.FileName, item.FileSize = obj.URL, obj.Key, obj.Name, obj.Size
		} else {
			fields["video_url"] = obj.URL
			fields["video_key"] = obj.Key
			item.VideoURL, item.VideoKey = obj.URL, obj.Key
		}
		return ss.itemRepo.UpdateFields(ctx, tx, item.ID, fields)
	})
	if err != nil {
		if uploaded != nil {
			orphans := types.NewDeleteManifest()
			orphans.AddKeys(uploaded.Key)
			ss.cleanup.Run(ctx, orphans)
		}
		return nil, err
	}
	if len(oldKeys) > 0 {
		released := types.NewDeleteManifest()
		released.AddKeys(oldKeys...)
		ss.cleanup.Run(ctx, released)
	}
	return item, nil
}

func (ss *syllabusService) RemoveContentItem(ctx context.Context, itemID uuid.UUID) (*types.DeleteManifest, error) {
	manifest := types.NewDeleteManifest()
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, _, err := ss.loadItemAuthorized(ctx, tx, itemID)
		if err != nil {
			return err
		}
		manifest.AddKeys(item.BlobKeys()...)
		if err := ss.itemRepo.DeleteByIDs(ctx, tx, []uuid.UUID{item.ID}); err != nil {
			return fmt.Errorf("delete content item: %w", err)
		}
		manifest.Count("content_items", 1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ss.cleanup.Run(ctx, manifest)
	return manifest, nil
}

func (ss *syllabusService) ReorderContentItems(ctx context.Context, moduleID uuid.UUID, orderedIDs []uuid.UUID) error {
	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		module, _, err := ss.loadModuleAuthorized(ctx, tx, moduleID)
		if err != nil {
			return err
		}
		items, err := ss.itemRepo.GetByModuleIDs(ctx, tx, []uuid.UUID{module.ID})
		if err != nil {
			return fmt.Errorf("load content items: %w", err)
		}
		existing := map[uuid.UUID]bool{}
		typeByID := map[uuid.UUID]string{}
		for _, it := range items {
			if it != nil {
				existing[it.ID] = true
				typeByID[it.ID] = it.Type
			}
		}
		if err := validateReorderSet(existing, orderedIDs); err != nil {
			return err
		}
		for id, order := range itemOrdersByType(typeByID, orderedIDs) {
			if err := ss.itemRepo.UpdateFields(ctx, tx, id, map[string]interface{}{"item_order": order}); err != nil {
				return fmt.Errorf("reorder content item %s: %w", id, err)
			}
		}
		return nil
	})
}

// --- authorization and traversal helpers ---

// authorizeCourse checks the requester may edit the given course's syllabus:
// admins always, teachers only for their own courses.
func (ss *syllabusService) authorizeCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("not authenticated"))
	}
	if rd.IsAdmin() {
		return nil
	}
	courses, err := ss.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return apierr.NotFound("course %s not found", courseID)
	}
	teachers, err := ss.teacherRepo.GetByUserIDs(ctx, tx, []uuid.UUID{rd.UserID})
	if err != nil {
		return fmt.Errorf("load requesting teacher: %w", err)
	}
	if len(teachers) == 0 || teachers[0] == nil || teachers[0].ID != courses[0].TeacherID {
		return apierr.Forbidden("course does not belong to the requesting teacher")
	}
	return nil
}

func (ss *syllabusService) ensureSyllabus(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Syllabus, error) {
	syllabi, err := ss.syllabusRepo.GetByCourseIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load syllabus: %w", err)
	}
	if len(syllabi) > 0 && syllabi[0] != nil {
		return syllabi[0], nil
	}
	syllabus := &types.Syllabus{ID: uuid.New(), CourseID: courseID}
	if _, err := ss.syllabusRepo.Create(ctx, tx, []*types.Syllabus{syllabus}); err != nil {
		return nil, fmt.Errorf("create syllabus: %w", err)
	}
	if err := ss.courseRepo.UpdateFields(ctx, tx, courseID, map[string]interface{}{"syllabus_id": syllabus.ID}); err != nil {
		return nil, fmt.Errorf("wire syllabus onto course: %w", err)
	}
	return syllabus, nil
}

// loadModuleAuthorized resolves module -> syllabus -> course and runs the
// course authorization check. Returns the module and its course id.
func (ss *syllabusService) loadModuleAuthorized(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*types.SyllabusModule, uuid.UUID, error) {
	modules, err := ss.moduleRepo.GetByIDs(ctx, tx, []uuid.UUID{moduleID})
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("load module: %w", err)
	}
	if len(modules) == 0 || modules[0] == nil {
		return nil, uuid.Nil, apierr.NotFound("module %s not found", moduleID)
	}
	module := modules[0]
	syllabi, err := ss.syllabusRepo.GetByIDs(ctx, tx, []uuid.UUID{module.SyllabusID})
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("load syllabus: %w", err)
	}
	if len(syllabi) == 0 || syllabi[0] == nil {
		return nil, uuid.Nil, apierr.NotFound("syllabus %s not found", module.SyllabusID)
	}
	courseID := syllabi[0].CourseID
	if err := ss.authorizeCourse(ctx, tx, courseID); err != nil {
		return nil, uuid.Nil, err
	}
	return module, courseID, nil
}

func (ss *syllabusService) loadChapterAuthorized(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID) (*types.Chapter, error) {
	chapters, err := ss.chapterRepo.GetByIDs(ctx, tx, []uuid.UUID{chapterID})
	if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if len(chapters) == 0 || chapters[0] == nil {
		return nil, apierr.NotFound("chapter %s not found", chapterID)
	}
	if _, _, err := ss.loadModuleAuthorized(ctx, tx, chapters[0].ModuleID); err != nil {
		return nil, err
	}
	return chapters[0], nil
}

func (ss *syllabusService) loadArticleAuthorized(ctx context.Context, tx *gorm.DB, articleID uuid.UUID) (*types.Article, error) {
	var article types.Article
	if err := txOrDB(tx, ss.db).WithContext(ctx).
		Where("id = ?", articleID).
		First(&article).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apierr.NotFound("article %s not found", articleID)
		}
		return nil, fmt.Errorf("load article: %w", err)
	}
	if _, err := ss.loadChapterAuthorized(ctx, tx, article.ChapterID); err != nil {
		return nil, err
	}
	return &article, nil
}

func (ss *syllabusService) loadItemAuthorized(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (*types.ContentItem, uuid.UUID, error) {
	items, err := ss.itemRepo.GetByIDs(ctx, tx, []uuid.UUID{itemID})
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("load content item: %w", err)
	}
	if len(items) == 0 || items[0] == nil {
		return nil, uuid.Nil, apierr.NotFound("content item %s not found", itemID)
	}
	_, courseID, err := ss.loadModuleAuthorized(ctx, tx, items[0].ModuleID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return items[0], courseID, nil
}

func validateReorderSet(existing map[uuid.UUID]bool, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) != len(existing) {
		return apierr.Validation("reorder must list all %d entries, got %d", len(existing), len(orderedIDs))
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range orderedIDs {
		if !existing[id] {
			return apierr.Validation("id %s is not part of this collection", id)
		}
		if seen[id] {
			return apierr.Validation("id %s listed more than once", id)
		}
		seen[id] = true
	}
	return nil
}

func maxChapterOrder(chapters []*types.Chapter) int {
	max := 0
	for _, c := range chapters {
		if c != nil && c.Order > max {
			max = c.Order
		}
	}
	return max
}

func maxItemOrder(items []*types.ContentItem, itemType string) int {
	max := 0
	for _, it := range items {
		if it != nil && it.Type == itemType && it.Order > max {
			max = it.Order
		}
	}
	return max
}

// itemOrdersByType numbers the submitted ids within their own content type,
// preserving the submitted relative order inside each type.
func itemOrdersByType(typeByID map[uuid.UUID]string, orderedIDs []uuid.UUID) map[uuid.UUID]int {
	counters := map[string]int{}
	out := make(map[uuid.UUID]int, len(orderedIDs))
	for _, id := range orderedIDs {
		t := typeByID[id]
		counters[t]++
		out[id] = counters[t]
	}
	return out
}

func txOrDB(tx, db *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
