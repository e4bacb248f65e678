package cli

import (
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/spf13/pflag"
)

// dateFlag is an optional YYYY-MM-DD flag; Ptr is nil until set.
type dateFlag struct {
	value *time.Time
}

var _ pflag.Value = (*dateFlag)(nil)

func (f *dateFlag) String() string {
	if f.value == nil {
		return ""
	}
	return f.value.Format(domain.DateLayout)
}

func (f *dateFlag) Set(s string) error {
	d, err := domain.ParseDay(s)
	if err != nil {
		return err
	}
	f.value = &d
	return nil
}

func (f *dateFlag) Type() string { return "date" }

func (f *dateFlag) Ptr() *time.Time { return f.value }

// amountFlag parses decimal units ("2.5", "0,75") into hundredths.
type amountFlag struct {
	value int64
}

var _ pflag.Value = (*amountFlag)(nil)

func (f *amountFlag) String() string { return domain.FormatAmount(f.value) }

func (f *amountFlag) Set(s string) error {
	v, err := domain.ParseAmount(s)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

func (f *amountFlag) Type() string { return "amount" }

// windowFlags registers --from and --to on fs.
func windowFlags(fs *pflag.FlagSet) (from, to *dateFlag) {
	from, to = &dateFlag{}, &dateFlag{}
	fs.Var(from, "from", "Window start, inclusive (YYYY-MM-DD)")
	fs.Var(to, "to", "Window end, inclusive (YYYY-MM-DD)")
	return from, to
}
