package metrics

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pubmetrics/internal/model"
)

// ParseWindow parses inclusive YYYY-MM-DD bounds. Impossible dates such as
// 2025-02-30 are rejected rather than normalized.
func ParseWindow(start, end string) (model.DateWindow, error) {
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return model.DateWindow{}, eris.Wrapf(err, "metrics: parse start date %q", start)
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return model.DateWindow{}, eris.Wrapf(err, "metrics: parse end date %q", end)
	}
	w := model.NewDateWindow(s, e)
	if !w.Valid() {
		return model.DateWindow{}, eris.Wrapf(ErrInvalidWindow, "metrics: window %s..%s", start, end)
	}
	return w, nil
}
