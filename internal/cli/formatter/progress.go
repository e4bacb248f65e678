package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timetree/internal/domain"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a progress bar like [████░░░░] 45%.
// The bar turns yellow past 80% and red once the work is complete.
func RenderProgress(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if width < 2 {
		width = 2
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	empty := width - filled

	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, empty)

	style := StyleGreen
	switch {
	case pct >= 1:
		style = StyleRed
	case pct >= 0.8:
		style = StyleYellow
	}

	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}

// Completion is the share of the estimate already spent: consumed over
// consumed plus todo, where consumed includes the initially consumed
// amount. ok is false when there is nothing to measure.
func Completion(s *domain.TaskSums) (pct float64, ok bool) {
	spent := s.InitiallyConsumedSum + s.Contributions.ConsumedSum
	total := spent + s.TodoSum
	if total <= 0 {
		return 0, false
	}
	return float64(spent) / float64(total), true
}
