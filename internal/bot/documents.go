package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/internal/excel"
	"github.com/example/studybot/internal/planner"
)

// handleDocument handles a file sent after /import
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	chatID := message.Chat.ID
	userID := message.From.ID

	b.mu.Lock()
	state, ok := b.userStates[userID]
	if ok {
		delete(b.userStates, userID)
	}
	b.mu.Unlock()
	if !ok || state.State != stateAwaitingImport || time.Since(state.Timestamp) > b.config.ConfirmTTL {
		b.send(chatID, "To import a file, send /import first.")
		return
	}

	doc := message.Document
	if int64(doc.FileSize) > b.config.MaxImportBytes {
		b.send(chatID, fmt.Sprintf("❌ The file is too large (max %d KB).", b.config.MaxImportBytes>>10))
		return
	}

	p, err := b.planner(ctx, message.From)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		log.Printf("Error downloading file from user %d: %v", userID, err)
		b.send(chatID, "❌ Could not download the file, please try again.")
		return
	}

	ext := strings.ToLower(filepath.Ext(doc.FileName))
	switch ext {
	case ".json":
		b.askConfirmation(chatID, userID, "Restoring this backup replaces all your plans. Continue?", func(ctx context.Context) error {
			return p.Import(ctx, data)
		}, "✅ Backup restored.")
	case ".xlsx", ".csv":
		b.importLessons(ctx, chatID, p, ext, data)
	default:
		b.send(chatID, "❌ Unsupported file. Send a .json backup or an .xlsx/.csv lesson list.")
	}
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file URL: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.config.MaxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}
	if int64(len(data)) > b.config.MaxImportBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", b.config.MaxImportBytes)
	}
	return data, nil
}

// importLessons writes the upload to a temporary file for the importer
func (b *Bot) importLessons(ctx context.Context, chatID int64, p *planner.Planner, ext string, data []byte) {
	tmp, err := os.CreateTemp("", "studybot-import-*"+ext)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		b.replyError(chatID, err)
		return
	}
	tmp.Close()

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = tmp.Name()
	result, err := excel.ImportLessons(ctx, cfg, p)
	if err != nil {
		b.send(chatID, "❌ Import failed: "+errorText(err))
		return
	}

	text := fmt.Sprintf("📥 Import finished\nRows: %d\nSubjects created: %d\nLessons created: %d\nSkipped: %d",
		result.TotalProcessed, result.SubjectsCreated, result.Created, result.Skipped)
	if len(result.Errors) > 0 {
		shown := result.Errors
		if len(shown) > 5 {
			shown = shown[:5]
		}
		text += fmt.Sprintf("\n\n⚠️ %d errors:\n%s", len(result.Errors), strings.Join(shown, "\n"))
	}
	b.send(chatID, text)
}
