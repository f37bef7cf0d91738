// Пакет amount — разбор и форматирование сумм ставок в человекочитаемой
// записи с суффиксами k (тысячи) и m (миллионы).
//
// Parse и Format не образуют точную пару: Format — lossy-отображение для
// вывода (округление до 1-2 знаков), Parse("1.5k") == 1500, но
// Format(1234567) == "1.23m" теряет точность относительно исходной суммы.
// Это намеренная асимметрия: точная сумма всегда хранится целым числом,
// форматированная строка используется только для отображения.
package amount

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Множители суффиксов.
var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// Parse разбирает сумму из пользовательского ввода: цифровая строка,
// форма с суффиксом k (×1 000) или m (×1 000 000), регистр не важен,
// разделители тысяч (запятые) игнорируются. Дробная часть перед суффиксом
// допустима ("1.5m" → 1500000), итог усекается до целого.
// На любой некорректный ввод возвращает 0 — вызывающая сторона обязана
// отбрасывать неположительные значения.
func Parse(text string) int64 {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}

	// Быстрый путь: чисто цифровая строка
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}

	mult := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(s, "k"):
		mult = thousand
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult = million
		s = strings.TrimSuffix(s, "m")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.Mul(mult).IntPart()
}

// Format возвращает человекочитаемое представление суммы:
// ≥1 000 000 — с суффиксом m и до двух знаков после точки,
// ≥1 000 — с суффиксом k и одним знаком, иначе — целое как есть.
// Хвостовые нули отбрасываются: Format(1500000) == "1.5m".
// Округление, выводящее за диапазон суффикса, повышает суффикс:
// Format(999999) == "1m", не "1000k".
func Format(n int64) string {
	switch {
	case n >= 1_000_000:
		return decimal.NewFromInt(n).Div(million).Round(2).String() + "m"
	case n >= 1_000:
		k := decimal.NewFromInt(n).Div(thousand).Round(1)
		if k.GreaterThanOrEqual(thousand) {
			return decimal.NewFromInt(n).Div(million).Round(2).String() + "m"
		}
		return k.String() + "k"
	default:
		return strconv.FormatInt(n, 10)
	}
}
