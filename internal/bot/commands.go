package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-timegrid/internal/service"
	"daily-timegrid/internal/timegrid"
)

const helpText = `⏱ <b>Учёт времени по 15 минут</b>

/grid [YYYY-MM-DD] — сетка дня. Нажми пустой слот и выбери категорию.
«📏 Диапазон» — отметить несколько слотов подряд: первый слот, затем последний, затем «Готово».
Нажатие на занятый слот предложит его очистить.

/stats [day|week|month] [YYYY-MM-DD] — распределение времени
/categories — список категорий
/addcategory Название [#RRGGBB] — новая категория
/editcategory ID Название [#RRGGBB] — изменить категорию
/delcategory ID — удалить категорию (отметки останутся без категории)
/export — выгрузить все данные в JSON
/cleardata — удалить все данные
/cancel — сбросить текущий выбор`

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg); err != nil {
		log.Printf("ensure user %d: %v", msg.From.ID, err)
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	name := msg.From.FirstName
	if name == "" {
		name = msg.From.UserName
	}
	text := fmt.Sprintf("Привет, %s! Я помогу разложить день по 15-минутным слотам.\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, helpText)
}

func (b *Bot) handleGrid(ctx context.Context, msg *tgbotapi.Message, args string) error {
	date := timegrid.FormatDate(b.now())
	if args != "" {
		d, err := timegrid.ParseDate(args)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Дата должна быть в формате YYYY-MM-DD, например /grid 2024-03-05")
		}
		date = timegrid.FormatDate(d)
	}
	if err := b.openGrid(ctx, msg.Chat.ID, date); err != nil {
		log.Printf("open grid %d: %v", msg.Chat.ID, err)
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	return nil
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message, args string) error {
	mode, date, err := parseStatsArgs(args, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Формат: /stats [day|week|month] [YYYY-MM-DD]")
	}
	text, err := b.reportSvc.Summary(ctx, date, mode)
	if err != nil {
		log.Printf("stats %d: %v", msg.Chat.ID, err)
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	_, err = b.sendWithReplyMarkup(msg.Chat.ID, text, statsKeyboard(mode, date, b.now()))
	return err
}

// handleStatsCallback re-renders a stats message for another period.
func (b *Bot) handleStatsCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	mode, date, err := parseStatsCallback(cb.Data)
	if err != nil {
		b.answerCallback(cb.ID, "")
		return nil
	}
	text, err := b.reportSvc.Summary(ctx, date, mode)
	if err != nil {
		b.answerCallback(cb.ID, userMessage(err))
		return err
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, text, statsKeyboard(mode, date, b.now()))
	edit.ParseMode = tgbotapi.ModeHTML
	b.answerCallback(cb.ID, "")
	if _, err := b.out.Send(edit); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		return err
	}
	return nil
}

func statsKeyboard(mode timegrid.ViewMode, date, now time.Time) tgbotapi.InlineKeyboardMarkup {
	data := func(m timegrid.ViewMode, d time.Time) string {
		return fmt.Sprintf("%s:%s:%s", cbStats, m, timegrid.FormatDate(d))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀", data(mode, timegrid.Shift(date, mode, -1))),
			tgbotapi.NewInlineKeyboardButtonData("Сегодня", data(mode, now)),
			tgbotapi.NewInlineKeyboardButtonData("▶", data(mode, timegrid.Shift(date, mode, 1))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("День", data(timegrid.ViewDay, date)),
			tgbotapi.NewInlineKeyboardButtonData("Неделя", data(timegrid.ViewWeek, date)),
			tgbotapi.NewInlineKeyboardButtonData("Месяц", data(timegrid.ViewMonth, date)),
		),
	)
}

func parseStatsCallback(data string) (timegrid.ViewMode, time.Time, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != cbStats {
		return "", time.Time{}, fmt.Errorf("stats callback %q", data)
	}
	mode, err := timegrid.ParseViewMode(parts[1])
	if err != nil {
		return "", time.Time{}, err
	}
	date, err := timegrid.ParseDate(parts[2])
	if err != nil {
		return "", time.Time{}, err
	}
	return mode, date, nil
}

// parseStatsArgs accepts a view mode and a date in either order. Both are optional.
func parseStatsArgs(args string, now time.Time) (timegrid.ViewMode, time.Time, error) {
	mode, date := timegrid.ViewDay, now
	seenMode, seenDate := false, false
	for _, field := range strings.Fields(args) {
		if m, err := timegrid.ParseViewMode(strings.ToLower(field)); err == nil && !seenMode {
			mode, seenMode = m, true
			continue
		}
		d, err := timegrid.ParseDate(field)
		if err != nil || seenDate {
			return "", time.Time{}, fmt.Errorf("stats argument %q", field)
		}
		date, seenDate = d, true
	}
	return mode, date, nil
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	categories, err := b.categorySvc.List(ctx)
	if err != nil {
		log.Printf("list categories: %v", err)
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, noCategoriesMsg)
	}

	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n\n")
	for _, c := range categories {
		builder.WriteString(fmt.Sprintf("%s <b>%d</b>. %s <code>%s</code>\n", service.ColorIcon(c.Color), c.ID, escape(c.Name), c.Color))
	}
	builder.WriteString("\nИзменить: /editcategory ID Название [#RRGGBB]\nУдалить: /delcategory ID")
	return b.sendText(msg.Chat.ID, builder.String())
}

func (b *Bot) handleAddCategory(ctx context.Context, msg *tgbotapi.Message, args string) error {
	name, color := parseCategoryArgs(args)
	if name == "" {
		return b.sendText(msg.Chat.ID, "Формат: /addcategory Название [#RRGGBB]")
	}
	id, err := b.categorySvc.Create(ctx, name, color)
	if err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	log.Printf("[info] category %d %q created by %d", id, name, msg.From.ID)
	b.ReloadGrids(ctx)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Категория «%s» добавлена (ID %d).", escape(name), id))
}

func (b *Bot) handleEditCategory(ctx context.Context, msg *tgbotapi.Message, args string) error {
	id, rest, err := parseCategoryID(args)
	name, color := parseCategoryArgs(rest)
	if err != nil || name == "" {
		return b.sendText(msg.Chat.ID, "Формат: /editcategory ID Название [#RRGGBB]")
	}
	if err := b.categorySvc.Update(ctx, id, name, color); err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	b.ReloadGrids(ctx)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✏️ Категория %d теперь «%s».", id, escape(name)))
}

func (b *Bot) handleDeleteCategory(ctx context.Context, msg *tgbotapi.Message, args string) error {
	id, _, err := parseCategoryID(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Формат: /delcategory ID")
	}
	category, err := b.categorySvc.Get(ctx, id)
	if err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}

	b.setConfirmation(msg.From.ID, confirmationRequest{action: actionDeleteCategory, categoryID: id, name: category.Name})
	text := fmt.Sprintf("Удалить категорию «%s»? Отмеченные слоты останутся без категории.", escape(category.Name))
	_, err = b.sendWithReplyMarkup(msg.Chat.ID, text, confirmKeyboard())
	return err
}

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) error {
	data, err := b.exportSvc.JSON(ctx)
	if err != nil {
		log.Printf("export: %v", err)
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: exportFileName, Bytes: data})
	doc.Caption = "📦 Все категории и отметки"
	_, err = b.out.Send(doc)
	return err
}

func (b *Bot) handleClearData(msg *tgbotapi.Message) error {
	b.setConfirmation(msg.From.ID, confirmationRequest{action: actionClearData})
	_, err := b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ Удалить все категории и отметки? Это нельзя отменить.", confirmKeyboard())
	return err
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	switch {
	case isCancelInput(msg.Text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Отменено.")
	case !isConfirmInput(msg.Text):
		_, err := b.sendWithReplyMarkup(msg.Chat.ID, "Подтверди или отмени действие кнопками ниже.", confirmKeyboard())
		return err
	}
	b.clearConfirmation(msg.From.ID)

	switch req.action {
	case actionDeleteCategory:
		if err := b.categorySvc.Delete(ctx, req.categoryID); err != nil {
			return b.sendText(msg.Chat.ID, userMessage(err))
		}
		log.Printf("[info] category %d deleted by %d", req.categoryID, msg.From.ID)
		b.ReloadGrids(ctx)
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Категория «%s» удалена.", escape(req.name)))
	case actionClearData:
		if err := b.exportSvc.ClearAll(ctx); err != nil {
			log.Printf("clear data: %v", err)
			return b.sendText(msg.Chat.ID, userMessage(err))
		}
		log.Printf("[info] all data cleared by %d", msg.From.ID)
		b.ReloadGrids(ctx)
		return b.sendText(msg.Chat.ID, "🧹 Все данные удалены.")
	default:
		return errors.New("unknown confirmation action")
	}
}

// parseCategoryArgs splits "name words #RRGGBB" into a name and an optional color.
func parseCategoryArgs(args string) (string, string) {
	fields := strings.Fields(args)
	color := ""
	if n := len(fields); n > 0 && strings.HasPrefix(fields[n-1], "#") {
		color = fields[n-1]
		fields = fields[:n-1]
	}
	return strings.Join(fields, " "), color
}

func parseCategoryID(args string) (uint, string, error) {
	raw, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, "", fmt.Errorf("category id %q", raw)
	}
	return uint(id), strings.TrimSpace(rest), nil
}
