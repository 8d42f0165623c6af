package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/studybot/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	SubjectColumn string // Column with the subject name
	LessonColumn  string // Column with the lesson title
	LinkColumn    string // Column with the material link
	SheetName     string // Name of the sheet to import
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SubjectColumn: "A",
		LessonColumn:  "B",
		LinkColumn:    "C",
		SheetName:     "Sheet1",
		StartRow:      2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed  int
	SubjectsCreated int
	Created         int
	Skipped         int
	Errors          []string
}

// Target receives the imported subjects and lessons
type Target interface {
	CurrentPlan() models.StudyPlan
	AddSubject(ctx context.Context, name string) (models.Subject, error)
	AddLesson(ctx context.Context, subjectID, title, link string) (models.Lesson, error)
}

// ImportLessons adds the subjects and lessons listed in an Excel or CSV
// file to the current plan. Lessons already present in a subject with the
// same title are skipped.
func ImportLessons(ctx context.Context, config ImportConfig, target Target) (*ImportResult, error) {
	var rows [][]string
	var err error

	// Check the file extension
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	imp := newImporter(target)
	result := &ImportResult{Errors: make([]string, 0)}

	// Rows whose subject cell is empty belong to the last subject seen,
	// so a sheet may list the subject once above its lessons.
	currentSubject := ""
	for i, row := range rows {
		rowNum := i + 1
		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}

		subject := cell(row, config.SubjectColumn)
		lesson := cell(row, config.LessonColumn)
		link := cell(row, config.LinkColumn)
		if subject == "" && lesson == "" {
			continue
		}
		if subject != "" {
			currentSubject = subject
		}
		if lesson == "" {
			// Subject header row
			continue
		}

		result.TotalProcessed++
		if currentSubject == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: lesson has no subject", rowNum))
			continue
		}
		if err := imp.add(ctx, currentSubject, lesson, link, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// readExcel returns every row of a sheet. An empty sheet name picks the
// first sheet of the workbook.
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	if !hasSheet(f, sheet) {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}
	return rows, nil
}

func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// importer tracks the subjects and lessons of the target plan while rows
// are added
type importer struct {
	target   Target
	subjects map[string]string          // lower-cased name -> subject id
	lessons  map[string]map[string]bool // subject id -> lower-cased titles
}

func newImporter(target Target) *importer {
	imp := &importer{
		target:   target,
		subjects: make(map[string]string),
		lessons:  make(map[string]map[string]bool),
	}
	for _, s := range target.CurrentPlan().Subjects {
		key := strings.ToLower(s.Name)
		if _, exists := imp.subjects[key]; !exists {
			imp.subjects[key] = s.ID
		}
		titles := make(map[string]bool)
		for _, l := range s.Lessons {
			titles[strings.ToLower(l.Title)] = true
		}
		imp.lessons[s.ID] = titles
	}
	return imp
}

func (imp *importer) add(ctx context.Context, subjectName, title, link string, result *ImportResult) error {
	subjectID, err := imp.getOrCreateSubject(ctx, subjectName, result)
	if err != nil {
		return err
	}

	key := strings.ToLower(title)
	if imp.lessons[subjectID][key] {
		result.Skipped++
		return nil
	}
	if _, err := imp.target.AddLesson(ctx, subjectID, title, link); err != nil {
		return fmt.Errorf("failed to create lesson: %v", err)
	}
	imp.lessons[subjectID][key] = true
	result.Created++
	return nil
}

// getOrCreateSubject gets a subject by name or creates a new one if it doesn't exist
func (imp *importer) getOrCreateSubject(ctx context.Context, name string, result *ImportResult) (string, error) {
	key := strings.ToLower(name)
	if id, exists := imp.subjects[key]; exists {
		return id, nil
	}

	s, err := imp.target.AddSubject(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to create subject: %v", err)
	}
	imp.subjects[key] = s.ID
	imp.lessons[s.ID] = make(map[string]bool)
	result.SubjectsCreated++
	return s.ID, nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
