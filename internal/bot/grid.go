package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-timegrid/internal/repository"
	"daily-timegrid/internal/selection"
	"daily-timegrid/internal/service"
	"daily-timegrid/internal/timegrid"
)

const (
	slotsPerPage = 24
	pagesPerDay  = timegrid.SlotsPerDay / slotsPerPage
	slotsPerRow  = 4
)

// Callback kinds of the grid keyboard.
const (
	cbSlot     = "s"
	cbCategory = "c"
	cbCancel   = "x"
	cbRange    = "r"
	cbDone     = "rel"
	cbDelete   = "del"
	cbPage     = "p"
	cbDay      = "d"
	cbStats    = "st"
)

var weekdays = [...]string{"Воскресенье", "Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота"}

// chatGrid is the open day grid of one chat.
type chatGrid struct {
	session *service.GridSession

	mu          sync.Mutex
	messageID   int
	page        int
	rangeMode   bool
	deleteIndex int
}

type gridState struct {
	page        int
	rangeMode   bool
	deleteIndex int
}

func (g *chatGrid) state() gridState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gridState{page: g.page, rangeMode: g.rangeMode, deleteIndex: g.deleteIndex}
}

func (g *chatGrid) resetMode() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rangeMode = false
	g.deleteIndex = -1
}

func (b *Bot) getGrid(chatID int64) *chatGrid {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grids[chatID]
}

func (b *Bot) closeGrids() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for chatID, g := range b.grids {
		g.session.Close()
		delete(b.grids, chatID)
	}
}

// openGrid replaces the chat's grid with a fresh one for date and sends it.
func (b *Bot) openGrid(ctx context.Context, chatID int64, date string) error {
	session := service.NewGridSession(b.logSvc, date, b.config.DwellThreshold, b.now)
	if _, err := session.Load(ctx); err != nil {
		session.Close()
		return err
	}

	now := timegrid.CurrentSlot(b.now())
	g := &chatGrid{session: session, deleteIndex: -1}
	if date == timegrid.FormatDate(b.now()) {
		g.page = now.Index() / slotsPerPage
	} else {
		// Start on daytime hours.
		g.page = 1
	}

	b.mu.Lock()
	if prev, ok := b.grids[chatID]; ok {
		prev.session.Close()
	}
	b.grids[chatID] = g
	b.mu.Unlock()

	session.OnChange(func() { b.refreshGrid(chatID) })

	text, markup := renderGrid(session.View(), g.state())
	sent, err := b.sendWithReplyMarkup(chatID, text, markup)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.messageID = sent.MessageID
	g.mu.Unlock()
	return nil
}

// refreshGrid re-renders the chat's grid message in place.
func (b *Bot) refreshGrid(chatID int64) {
	g := b.getGrid(chatID)
	if g == nil {
		return
	}
	g.mu.Lock()
	messageID := g.messageID
	g.mu.Unlock()
	if messageID == 0 {
		return
	}

	text, markup := renderGrid(g.session.View(), g.state())
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.out.Send(edit); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		log.Printf("refresh grid %d: %v", chatID, err)
	}
}

// ReloadGrids reloads every open grid, dropping in-flight selections.
func (b *Bot) ReloadGrids(ctx context.Context) {
	b.mu.Lock()
	chats := make([]int64, 0, len(b.grids))
	for chatID := range b.grids {
		chats = append(chats, chatID)
	}
	b.mu.Unlock()

	for _, chatID := range chats {
		g := b.getGrid(chatID)
		if g == nil {
			continue
		}
		g.resetMode()
		if _, err := g.session.Load(ctx); err != nil {
			log.Printf("reload grid %d: %v", chatID, err)
			continue
		}
		b.refreshGrid(chatID)
	}
}

// RefreshClocks moves the current-time marker of grids showing today.
func (b *Bot) RefreshClocks() {
	b.mu.Lock()
	chats := make([]int64, 0, len(b.grids))
	for chatID, g := range b.grids {
		if g.session.View().IsToday && g.session.RefreshClock() {
			chats = append(chats, chatID)
		}
	}
	b.mu.Unlock()

	for _, chatID := range chats {
		b.refreshGrid(chatID)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	if strings.HasPrefix(cb.Data, cbStats+":") {
		return b.handleStatsCallback(ctx, cb)
	}

	kind, arg, err := parseCallback(cb.Data)
	if err != nil {
		b.answerCallback(cb.ID, "")
		return nil
	}

	g := b.getGrid(chatID)
	if g == nil {
		b.answerCallback(cb.ID, "Сетка закрыта, открой её заново: /grid")
		return nil
	}
	g.mu.Lock()
	stale := g.messageID != cb.Message.MessageID
	g.mu.Unlock()
	if stale {
		b.answerCallback(cb.ID, "Эта сетка устарела, открой новую: /grid")
		return nil
	}

	log.Printf("[info] grid callback chat=%d data=%s", chatID, cb.Data)
	toast, err := b.applyGridEvent(ctx, g, kind, arg)
	if err != nil {
		toast = userMessage(err)
		if errors.Is(err, repository.ErrNotFound) {
			if _, lerr := g.session.Load(ctx); lerr != nil {
				log.Printf("reload grid %d: %v", chatID, lerr)
			}
		}
		var perr *repository.PersistenceError
		if errors.As(err, &perr) {
			log.Printf("grid %d: %v", chatID, err)
		}
	}
	b.answerCallback(cb.ID, toast)
	b.refreshGrid(chatID)
	return nil
}

// applyGridEvent feeds one keyboard action into the chat's grid session.
func (b *Bot) applyGridEvent(ctx context.Context, g *chatGrid, kind string, arg int) (string, error) {
	session := g.session
	switch kind {
	case cbSlot:
		st := g.state()
		if session.View().State == selection.RangeDragging {
			session.Move(arg)
			return "", nil
		}
		var (
			out selection.Outcome
			err error
		)
		if st.rangeMode {
			out, err = session.Hold(arg)
		} else {
			out, err = session.Tap(arg)
		}
		if err != nil {
			return "", err
		}
		return b.handleOutcome(g, out), nil
	case cbRange:
		session.Cancel()
		g.mu.Lock()
		g.rangeMode = true
		g.deleteIndex = -1
		g.mu.Unlock()
		return "Выбери первый слот диапазона", nil
	case cbDone:
		out := session.Release()
		g.resetMode()
		return b.handleOutcome(g, out), nil
	case cbCancel:
		session.Cancel()
		g.resetMode()
		return "", nil
	case cbCategory:
		if arg <= 0 {
			return "", fmt.Errorf("category %d: %w", arg, repository.ErrNotFound)
		}
		if err := session.Choose(ctx, uint(arg)); err != nil {
			return "", err
		}
		return "✅ Сохранено", nil
	case cbDelete:
		st := g.state()
		g.resetMode()
		if st.deleteIndex != arg {
			return "", selection.ErrInvalidSlot
		}
		if err := session.ConfirmDelete(ctx, arg); err != nil {
			return "", err
		}
		return "🗑 Удалено", nil
	case cbPage:
		g.mu.Lock()
		g.page = ((arg % pagesPerDay) + pagesPerDay) % pagesPerDay
		g.mu.Unlock()
		return "", nil
	case cbDay:
		target := b.now()
		if arg != 0 {
			current, err := timegrid.ParseDate(session.View().Date)
			if err != nil {
				return "", err
			}
			target = timegrid.Shift(current, timegrid.ViewDay, arg)
		}
		g.resetMode()
		if err := session.SetDate(timegrid.FormatDate(target)); err != nil {
			return "", err
		}
		if _, err := session.Load(ctx); err != nil {
			return "", err
		}
		return "", nil
	default:
		return "", nil
	}
}

func (b *Bot) handleOutcome(g *chatGrid, out selection.Outcome) string {
	switch out.Action {
	case selection.ActionConfirmDelete:
		g.mu.Lock()
		g.rangeMode = false
		g.deleteIndex = out.Index
		g.mu.Unlock()
		return ""
	case selection.ActionChooseCategory:
		if len(g.session.View().Categories) == 0 {
			g.session.Cancel()
			return noCategoriesMsg
		}
		return ""
	default:
		return ""
	}
}

func parseCallback(data string) (string, int, error) {
	kind, raw, hasArg := strings.Cut(data, ":")
	switch kind {
	case cbCancel, cbRange, cbDone:
		return kind, 0, nil
	case cbSlot, cbCategory, cbDelete, cbPage, cbDay:
		if !hasArg {
			return "", 0, fmt.Errorf("callback %q: missing argument", data)
		}
		arg, err := strconv.Atoi(raw)
		if err != nil {
			return "", 0, fmt.Errorf("callback %q: %w", data, err)
		}
		return kind, arg, nil
	default:
		return "", 0, fmt.Errorf("unknown callback %q", data)
	}
}

// renderGrid builds the grid message for a session snapshot.
func renderGrid(view service.GridView, st gridState) (string, tgbotapi.InlineKeyboardMarkup) {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🗓 <b>%s</b>\n", escape(dateTitle(view.Date))))

	logged := 0
	for _, s := range view.Slots {
		if s.Occupied() {
			logged++
		}
	}
	builder.WriteString(fmt.Sprintf("Отмечено: %.2f ч из 24\n\n", float64(logged)*timegrid.SlotMinutes/60))

	switch {
	case !view.Loaded:
		builder.WriteString("Загрузка…")
	case view.State == selection.PendingCommit:
		builder.WriteString(fmt.Sprintf("Выбрано слотов: <b>%d</b>. Выбери категорию.", len(view.Selected)))
	case view.State == selection.RangeDragging:
		builder.WriteString(fmt.Sprintf("📏 Диапазон: выбрано <b>%d</b>. Нажимай слоты дальше, затем «Готово».", len(view.Selected)))
	case st.deleteIndex >= 0 && st.deleteIndex < len(view.Slots) && view.Slots[st.deleteIndex].Occupied():
		s := view.Slots[st.deleteIndex]
		builder.WriteString(fmt.Sprintf("Убрать «%s» из %s?", escape(s.Category.Name), timegrid.FormatDisplay(s.Time)))
	case st.rangeMode:
		builder.WriteString("📏 Нажми слот, с которого начнётся диапазон.")
	default:
		builder.WriteString("Нажми пустой слот, чтобы отметить его. «Диапазон» выбирает несколько слотов подряд.")
	}

	return builder.String(), gridKeyboard(view, st)
}

func gridKeyboard(view service.GridView, st gridState) tgbotapi.InlineKeyboardMarkup {
	if view.State == selection.PendingCommit {
		return categoryKeyboard(view)
	}
	if st.deleteIndex >= 0 && st.deleteIndex < len(view.Slots) && view.Slots[st.deleteIndex].Occupied() {
		return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Убрать", fmt.Sprintf("%s:%d", cbDelete, st.deleteIndex)),
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbCancel),
		))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	first := st.page * slotsPerPage
	for i := first; i < first+slotsPerPage && i < len(view.Slots); i += slotsPerRow {
		var row []tgbotapi.InlineKeyboardButton
		for j := i; j < i+slotsPerRow && j < len(view.Slots); j++ {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(slotLabel(view, j), fmt.Sprintf("%s:%d", cbSlot, j)))
		}
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀ "+pageLabel(st.page-1), fmt.Sprintf("%s:%d", cbPage, st.page-1)),
		tgbotapi.NewInlineKeyboardButtonData(pageLabel(st.page+1)+" ▶", fmt.Sprintf("%s:%d", cbPage, st.page+1)),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« День", cbDay+":-1"),
		tgbotapi.NewInlineKeyboardButtonData("Сегодня", cbDay+":0"),
		tgbotapi.NewInlineKeyboardButtonData("День »", cbDay+":1"),
	))

	switch {
	case view.State == selection.RangeDragging:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Готово", cbDone),
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbCancel),
		))
	case st.rangeMode:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbCancel),
		))
	default:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📏 Диапазон", cbRange),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func categoryKeyboard(view service.GridView) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range view.Categories {
		label := service.ColorIcon(c.Color) + " " + c.Name
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s:%d", cbCategory, c.ID)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbCancel)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func slotLabel(view service.GridView, index int) string {
	s := view.Slots[index]
	label := s.Time.String()
	switch {
	case view.Selected[index]:
		return "✅" + label
	case s.Occupied():
		return service.ColorIcon(s.Category.Color) + label
	case view.IsToday && index == view.Current.Index():
		return "▶" + label
	default:
		return label
	}
}

func pageLabel(page int) string {
	page = ((page % pagesPerDay) + pagesPerDay) % pagesPerDay
	from := page * slotsPerPage * timegrid.SlotMinutes / 60
	return fmt.Sprintf("%02d–%02d", from, from+slotsPerPage*timegrid.SlotMinutes/60)
}

func dateTitle(date string) string {
	d, err := timegrid.ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s, %s", weekdays[d.Weekday()], d.Format("02.01.2006"))
}
