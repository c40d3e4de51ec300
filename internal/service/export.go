package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"writingway/internal/interfaces"
	"writingway/internal/models"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

// ExportFormat - формат выгрузки проекта.
type ExportFormat string

const (
	ExportMarkdown ExportFormat = "markdown"
	ExportHTML     ExportFormat = "html"
)

// ParseExportFormat: пустое значение означает markdown.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "md", ExportMarkdown:
		return ExportMarkdown, nil
	case ExportHTML:
		return ExportHTML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q: %w", s, models.ErrInvalidInput)
	}
}

// ExportResult - готовый файл выгрузки.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService собирает проект в один документ.
type ExportService interface {
	Export(ctx context.Context, userID, projectID uuid.UUID, format ExportFormat) (*ExportResult, error)
}

var _ ExportService = (*exportService)(nil)

type exportService struct {
	projects   interfaces.ProjectRepository
	documents  interfaces.DocumentRepository
	compendium interfaces.CompendiumRepository
	md         goldmark.Markdown
	logger     *zap.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(
	projects interfaces.ProjectRepository,
	documents interfaces.DocumentRepository,
	compendium interfaces.CompendiumRepository,
	logger *zap.Logger,
) ExportService {
	return &exportService{
		projects:   projects,
		documents:  documents,
		compendium: compendium,
		// HTML редактора хранится в документах как есть
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		logger: logger.Named("ExportService"),
	}
}

func (s *exportService) Export(ctx context.Context, userID, projectID uuid.UUID, format ExportFormat) (*ExportResult, error) {
	project, err := s.projects.GetByID(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	entries, err := s.compendium.ListByProject(ctx, projectID, models.CompendiumFilter{})
	if err != nil {
		return nil, fmt.Errorf("list compendium: %w", err)
	}

	markdown := RenderProjectMarkdown(project, docs, entries)
	base := exportFilename(project.Name)

	res := &ExportResult{}
	switch format {
	case ExportHTML:
		var body bytes.Buffer
		if err := s.md.Convert(markdown, &body); err != nil {
			s.logger.Error("Failed to render project HTML", zap.Stringer("projectID", projectID), zap.Error(err))
			return nil, fmt.Errorf("render html: %w", err)
		}
		res.Filename = base + ".html"
		res.ContentType = "text/html; charset=utf-8"
		res.Body = wrapHTML(project.Name, body.Bytes())
	default:
		res.Filename = base + ".md"
		res.ContentType = "text/markdown; charset=utf-8"
		res.Body = markdown
	}

	s.logger.Info("Project exported",
		zap.Stringer("projectID", projectID),
		zap.String("format", string(format)),
		zap.Int("documents", len(docs)),
		zap.Int("entries", len(entries)),
	)
	return res, nil
}

// RenderProjectMarkdown собирает Markdown проекта: заголовок, описание, документы
// в порядке дерева (вложенность задаёт уровень заголовка) и приложение с компендиумом.
// docs ожидаются в порядке order_index, created_at.
func RenderProjectMarkdown(project *models.Project, docs []models.Document, entries []models.CompendiumEntry) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", oneLine(project.Name))
	if desc := strings.TrimSpace(project.Description); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}

	ids := make(map[uuid.UUID]struct{}, len(docs))
	for _, d := range docs {
		ids[d.ID] = struct{}{}
	}
	children := make(map[uuid.UUID][]models.Document)
	var roots []models.Document
	for _, d := range docs {
		if d.ParentID == nil {
			roots = append(roots, d)
			continue
		}
		// родитель удалён или неактивен - документ выводится на верхнем уровне
		if _, ok := ids[*d.ParentID]; !ok {
			roots = append(roots, d)
			continue
		}
		children[*d.ParentID] = append(children[*d.ParentID], d)
	}

	visited := make(map[uuid.UUID]bool, len(docs))
	var walk func(d models.Document, depth int)
	walk = func(d models.Document, depth int) {
		if visited[d.ID] {
			return
		}
		visited[d.ID] = true
		level := min(2+depth, 6)
		fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", level), oneLine(d.Title))
		if content := strings.TrimSpace(d.Content); content != "" {
			b.WriteString(content)
			b.WriteString("\n\n")
		}
		for _, c := range children[d.ID] {
			walk(c, depth+1)
		}
	}
	for _, d := range roots {
		walk(d, 0)
	}
	// документы из цикла родителей недостижимы от корней, выводим их на верхнем уровне
	for _, d := range docs {
		walk(d, 0)
	}

	if len(entries) > 0 {
		b.WriteString("---\n\n## Compendium\n\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "### %s\n\n", oneLine(e.Title))
			fmt.Fprintf(&b, "*%s*", oneLine(e.EntryType))
			if len(e.Tags) > 0 {
				fmt.Fprintf(&b, " · %s", strings.Join(e.Tags, ", "))
			}
			b.WriteString("\n\n")
			if len(e.Aliases) > 0 {
				fmt.Fprintf(&b, "Also known as: %s\n\n", strings.Join(e.Aliases, ", "))
			}
			if content := strings.TrimSpace(e.Content); content != "" {
				b.WriteString(content)
				b.WriteString("\n\n")
			}
		}
	}
	return b.Bytes()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// exportFilename оставляет в имени файла только буквы, цифры, '-' и '_'.
func exportFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "project"
	}
	return b.String()
}

func wrapHTML(title string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(oneLine(title)))
	b.WriteString("</title>\n</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}
