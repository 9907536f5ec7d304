package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-timegrid/internal/config"
	"daily-timegrid/internal/repository"
	"daily-timegrid/internal/selection"
	"daily-timegrid/internal/service"
	"daily-timegrid/internal/timegrid"
)

const (
	btnConfirm      = "✅ Подтвердить"
	btnCancel       = "↩️ Отмена"
	menuLabelGrid   = "🗓 Сетка"
	menuLabelStats  = "📊 Статистика"
	menuLabelCats   = "📂 Категории"
	menuLabelHelp   = "ℹ️ Помощь"
	exportFileName  = "timetracker-export.json"
	noCategoriesMsg = "Сначала создай категорию: /addcategory Работа"
)

type confirmationAction int

const (
	actionDeleteCategory confirmationAction = iota
	actionClearData
)

type confirmationRequest struct {
	action     confirmationAction
	categoryID uint
	name       string
}

// sender is the part of the Telegram API the bot writes through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	out           sender
	userRepo      *repository.UserRepository
	categorySvc   *service.CategoryService
	logSvc        *service.TimeLogService
	reportSvc     *service.ReportService
	exportSvc     *service.ExportService
	config        *config.Config
	now           func() time.Time
	grids         map[int64]*chatGrid
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, userRepo *repository.UserRepository, categorySvc *service.CategoryService, logSvc *service.TimeLogService, reportSvc *service.ReportService, exportSvc *service.ExportService, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, userRepo, categorySvc, logSvc, reportSvc, exportSvc, cfg)
	b.api = api
	return b, nil
}

func newBot(out sender, userRepo *repository.UserRepository, categorySvc *service.CategoryService, logSvc *service.TimeLogService, reportSvc *service.ReportService, exportSvc *service.ExportService, cfg *config.Config) *Bot {
	return &Bot{
		out:           out,
		userRepo:      userRepo,
		categorySvc:   categorySvc,
		logSvc:        logSvc,
		reportSvc:     reportSvc,
		exportSvc:     exportSvc,
		config:        cfg,
		now:           time.Now,
		grids:         make(map[int64]*chatGrid),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	b.closeGrids()
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /grid, чтобы открыть сетку дня, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "grid":
		return b.handleGrid(ctx, msg, args)
	case "stats":
		return b.handleStats(ctx, msg, args)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "addcategory":
		return b.handleAddCategory(ctx, msg, args)
	case "editcategory":
		return b.handleEditCategory(ctx, msg, args)
	case "delcategory":
		return b.handleDeleteCategory(ctx, msg, args)
	case "export":
		return b.handleExport(ctx, msg)
	case "cleardata":
		return b.handleClearData(msg)
	case "cancel":
		b.clearConfirmation(msg.From.ID)
		if g := b.getGrid(msg.Chat.ID); g != nil {
			g.session.Cancel()
			g.resetMode()
			b.refreshGrid(msg.Chat.ID)
		}
		return b.sendText(msg.Chat.ID, "⏪ Выбор отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelGrid):
		return true, b.handleGrid(ctx, msg, "")
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, msg, "")
	case strings.ToLower(menuLabelCats):
		return true, b.handleCategories(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

// SendDailyReports sends today's time distribution to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}
	text, err := b.reportSvc.Summary(ctx, b.now(), timegrid.ViewDay)
	if err != nil {
		return err
	}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		chatID := user.ChatID
		if chatID == 0 {
			chatID = user.TelegramID
		}
		if err := b.sendText(chatID, text); err != nil {
			log.Printf("send summary to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, msg *tgbotapi.Message) error {
	_, err := b.userRepo.UpsertFromTelegram(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	return b.out.Send(msg)
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.out.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Printf("callback ack: %v", err)
	}
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

// userMessage turns a service error into plain text for the user.
func userMessage(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return "⚠️ " + verr.Reason
	case errors.Is(err, repository.ErrDuplicateName):
		return "⚠️ Категория с таким названием уже есть."
	case errors.Is(err, repository.ErrNotFound):
		return "ℹ️ Уже удалено, данные обновлены."
	case errors.Is(err, selection.ErrNotPending):
		return "ℹ️ Выбор сброшен, выбери слоты заново."
	case errors.Is(err, selection.ErrInvalidSlot):
		return "ℹ️ Такого слота нет."
	default:
		return "❌ Не удалось сохранить изменения. Попробуй ещё раз."
	}
}

func escape(s string) string {
	return html.EscapeString(s)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelGrid),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func isConfirmInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnConfirm) || t == "да" || t == "подтвердить"
}

func isCancelInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnCancel) || t == "нет" || t == "отмена"
}
