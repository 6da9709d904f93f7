package conversation

import (
	"fmt"
	"strings"

	"github.com/m3rciful/cnybot/core/telegram/format"
	"github.com/m3rciful/cnybot/core/telegram/keyboard"
	"github.com/m3rciful/cnybot/internal/quote"
)

// Commands understood by the flow.
const (
	CmdStart  = "/start"
	CmdCancel = "/cancel"
)

const (
	msgAskPrice     = "👟 Введите цену товара в юанях (CNY):\nПример: 1500"
	msgInvalidPrice = "❌ Введите корректную цену (например: 1500)"
	msgChooseBox    = "📦 Выберите коробку (курс: 1 CNY = %s RUB):"
	msgUnknownBox   = "❌ Выберите вариант из списка:"
	msgCancelled    = "❌ Отменено. Для нового расчета /start"
	msgIdleHint     = "Для нового расчета нажмите /start"
	msgFailure      = "⚠️ Произошла ошибка. Начните заново: /start"
)

// Keyboard is a reply keyboard: rows of button labels.
type Keyboard struct {
	Rows    [][]string
	OneTime bool
}

// Reply is a single outbound message produced by a transition.
type Reply struct {
	Text     string
	Markdown bool
	Keyboard *Keyboard
}

func cancelKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{{CmdCancel}}}
}

func startKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{{CmdStart}}}
}

func boxKeyboard() *Keyboard {
	return &Keyboard{Rows: keyboard.Column(quote.Labels()...), OneTime: true}
}

// renderQuote lays out the final calculation. Header and total are Markdown bold.
func renderQuote(q quote.Quote) string {
	var b strings.Builder
	b.WriteString("📊 *Итоговый расчет*\n\n")
	fmt.Fprintf(&b, "📦 %s\n", format.Markdown(q.Box.Label))
	fmt.Fprintf(&b, "• Размер: %s\n", q.Box.Size)
	fmt.Fprintf(&b, "• Доставка: %s\n\n", quote.FormatRUB(float64(q.Box.Delivery)))
	fmt.Fprintf(&b, "💵 Товар: %s\n", quote.FormatRUB(q.ItemRUB))
	fmt.Fprintf(&b, "(Цена: %s CNY × Курс: %s RUB)\n\n", quote.FormatNumber(q.PriceCNY), quote.FormatNumber(q.Rate))
	fmt.Fprintf(&b, "💼 Комиссия: %s\n", quote.FormatRUB(float64(q.ServiceFee)))
	b.WriteString("══════════════════\n")
	fmt.Fprintf(&b, "💳 *Итого: %s*", quote.FormatRUB(q.Total))
	return b.String()
}
