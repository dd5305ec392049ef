package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// pollTimeoutSeconds is the long-poll wait passed to getUpdates.
const pollTimeoutSeconds = 30

const welcomeText = "Hi! I'm a nutrition coach bot. I'm not a doctor, and my advice " +
	"doesn't replace a consultation with a specialist.\n\n" +
	"Commands:\n" +
	"/progress — your latest measurements\n" +
	"/menu — this week's menu\n" +
	"/report — your weekly report\n\n" +
	"Send a number to log today's calories, or a photo of your meal and " +
	"I'll estimate it."

/* ─── Telegram wire types ────────────────────────────────────────────── */

type tgUpdate struct {
	UpdateID int64      `json:"update_id"`
	Message  *tgMessage `json:"message"`
}

type tgMessage struct {
	MessageID int64         `json:"message_id"`
	From      *tgUser       `json:"from"`
	Chat      tgChat        `json:"chat"`
	Text      string        `json:"text"`
	Photo     []tgPhotoSize `json:"photo"`
}

type tgUser struct {
	ID int64 `json:"id"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgPhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
}

type tgFile struct {
	FilePath string `json:"file_path"`
}

// tgResponse is the common Bot API envelope.
type tgResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

/* ─── Bot ────────────────────────────────────────────────────────────── */

// Bot relays Telegram messages to the core and vision services over long
// polling. It holds no per-chat state: every message is handled on its own.
type Bot struct {
	token      string
	apiBaseURL string
	httpClient *http.Client
	core       *CoreClient
	vision     *VisionClient
}

// New builds a bot for the given token and backend clients.
func New(token string, core *CoreClient, vision *VisionClient) *Bot {
	return &Bot{
		token:      token,
		apiBaseURL: telegramAPIBase,
		// Slightly above the long-poll window so getUpdates can return
		// empty on its own instead of being cut off.
		httpClient: &http.Client{Timeout: (pollTimeoutSeconds + 10) * time.Second},
		core:       core,
		vision:     vision,
	}
}

// Run polls for updates until the context is cancelled. Errors from a single
// poll or message are logged and do not stop the loop.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	log.Println("[bot] polling for updates")
	for {
		if ctx.Err() != nil {
			log.Println("[bot] stopped")
			return ctx.Err()
		}
		updates, err := b.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("[bot] stopped")
				return ctx.Err()
			}
			log.Printf("[bot] getUpdates failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}
		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			if err := b.handleMessage(ctx, *update.Message); err != nil {
				log.Printf("[bot] message from chat %d failed: %v", update.Message.Chat.ID, err)
			}
		}
	}
}

// handleMessage dispatches one inbound message: photo, command, or number.
func (b *Bot) handleMessage(ctx context.Context, msg tgMessage) error {
	telegramID := strconv.FormatInt(msg.From.ID, 10)

	if len(msg.Photo) > 0 {
		return b.handlePhoto(ctx, msg, telegramID)
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case text == "/start":
		return b.sendMessage(ctx, msg.Chat.ID, welcomeText)
	case text == "/progress":
		data, err := b.core.ProgressSummary(ctx, telegramID)
		if err != nil {
			b.sendMessage(ctx, msg.Chat.ID, "Couldn't fetch your progress right now. Try again later.")
			return err
		}
		return b.sendMessage(ctx, msg.Chat.ID, formatProgress(data))
	case text == "/menu":
		data, err := b.core.WeekMenu(ctx, telegramID)
		if err != nil {
			b.sendMessage(ctx, msg.Chat.ID, "Couldn't fetch your menu right now. Try again later.")
			return err
		}
		return b.sendMessage(ctx, msg.Chat.ID, formatMenu(data))
	case text == "/report":
		data, err := b.core.WeeklyReport(ctx, telegramID)
		if err != nil {
			b.sendMessage(ctx, msg.Chat.ID, "The report isn't ready yet. Keep logging and check back later!")
			return err
		}
		return b.sendMessage(ctx, msg.Chat.ID, formatReport(data))
	}

	if calories, ok := parseCalories(text); ok {
		today := time.Now().UTC().Format("2006-01-02")
		if err := b.core.LogDailyIntake(ctx, telegramID, today, calories); err != nil {
			b.sendMessage(ctx, msg.Chat.ID, "Couldn't save that. Try again later.")
			return err
		}
		return b.sendMessage(ctx, msg.Chat.ID,
			fmt.Sprintf("Logged %s kcal for today.", trimFloat(calories)))
	}

	return b.sendMessage(ctx, msg.Chat.ID,
		"Send /progress, /menu, /report, a calorie number, or a photo of your meal.")
}

// handlePhoto downloads the largest photo size, runs it through the vision
// service, and logs the estimated calories as today's intake.
func (b *Bot) handlePhoto(ctx context.Context, msg tgMessage, telegramID string) error {
	photo := msg.Photo[len(msg.Photo)-1] // sizes are ordered small to large
	imageBytes, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, "Couldn't read that photo. Try again later.")
		return err
	}

	estimate, err := b.vision.EstimateMeal(ctx, imageBytes, photo.FileUniqueID+".jpg")
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, "Couldn't recognize the dish. Try again later.")
		return err
	}

	today := time.Now().UTC().Format("2006-01-02")
	if err := b.core.LogDailyIntake(ctx, telegramID, today, estimate.CaloriesKcal); err != nil {
		b.sendMessage(ctx, msg.Chat.ID, "Couldn't save that meal. Try again later.")
		return err
	}
	return b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("Logged that meal: ~%s kcal (%s, %d g).",
			trimFloat(estimate.CaloriesKcal), estimate.Label, estimate.PortionGramsEst))
}

/* ─── Telegram Bot API calls ─────────────────────────────────────────── */

// callAPI performs one Bot API method call and returns the raw result.
func (b *Bot) callAPI(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", b.apiBaseURL, b.token, method)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope tgResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("%s: telegram error: %s", method, envelope.Description)
	}
	return envelope.Result, nil
}

// getUpdates long-polls for new updates past the offset.
func (b *Bot) getUpdates(ctx context.Context, offset int64) ([]tgUpdate, error) {
	result, err := b.callAPI(ctx, "getUpdates", url.Values{
		"offset":  {strconv.FormatInt(offset, 10)},
		"timeout": {strconv.Itoa(pollTimeoutSeconds)},
	})
	if err != nil {
		return nil, err
	}
	var updates []tgUpdate
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// sendMessage sends plain text to a chat.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := b.callAPI(ctx, "sendMessage", url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	})
	return err
}

// downloadFile resolves a file id to a path and fetches its bytes.
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	result, err := b.callAPI(ctx, "getFile", url.Values{"file_id": {fileID}})
	if err != nil {
		return nil, err
	}
	var file tgFile
	if err := json.Unmarshal(result, &file); err != nil {
		return nil, err
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", b.apiBaseURL, b.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

/* ─── Formatting helpers ─────────────────────────────────────────────── */

// mealOrder fixes the slot order in rendered menus.
var mealOrder = []string{"breakfast", "lunch", "dinner", "snack"}

// parseCalories interprets free text as a calorie amount. Accepts a comma
// as the decimal separator.
func parseCalories(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// trimFloat renders a float without trailing zeros (540, not 540.000000).
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatProgress renders the summary, skipping metrics that were never
// logged.
func formatProgress(data progressData) string {
	lines := []string{"Latest progress:"}
	if data.LastWeightKG != nil {
		lines = append(lines, fmt.Sprintf("Weight: %s kg", trimFloat(*data.LastWeightKG)))
	}
	if data.LastWaistCM != nil {
		lines = append(lines, fmt.Sprintf("Waist: %s cm", trimFloat(*data.LastWaistCM)))
	}
	if data.LastHipsCM != nil {
		lines = append(lines, fmt.Sprintf("Hips: %s cm", trimFloat(*data.LastHipsCM)))
	}
	if data.LastChestCM != nil {
		lines = append(lines, fmt.Sprintf("Chest: %s cm", trimFloat(*data.LastChestCM)))
	}
	if data.AvgCaloriesLast7Day != nil {
		lines = append(lines, fmt.Sprintf("Average calories over 7 days: %s kcal",
			trimFloat(*data.AvgCaloriesLast7Day)))
	}
	lines = append(lines, data.Message)
	return strings.Join(lines, "\n")
}

// formatMenu renders the weekly menu day by day, dates ascending.
func formatMenu(data menuData) string {
	days := make([]string, 0, len(data.Menu))
	for day := range data.Menu {
		days = append(days, day)
	}
	sort.Strings(days)

	lines := []string{"Menu for the week:"}
	for _, day := range days {
		lines = append(lines, "", day+":")
		for _, slot := range mealOrder {
			meal, ok := data.Menu[day][slot]
			if !ok {
				continue
			}
			lines = append(lines, fmt.Sprintf("  %s: %s (~%d kcal)",
				capitalize(slot), meal.Title, meal.CaloriesKcal))
		}
	}
	return strings.Join(lines, "\n")
}

// capitalize upcases the first letter of an ASCII slot name.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatReport renders the weekly report with its status flags, flag keys
// sorted for stable output.
func formatReport(data reportData) string {
	keys := make([]string, 0, len(data.StatusFlags))
	for key := range data.StatusFlags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	flagParts := make([]string, 0, len(keys))
	for _, key := range keys {
		flagParts = append(flagParts, fmt.Sprintf("%s: %v", key, data.StatusFlags[key]))
	}

	text := fmt.Sprintf("Report for the week %s — %s\n\n%s",
		data.WeekStart, data.WeekEnd, data.SummaryText)
	if len(flagParts) > 0 {
		text += "\n\nStatus: " + strings.Join(flagParts, ", ")
	}
	return text
}
