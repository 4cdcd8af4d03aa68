package node

import (
	"errors"
	"time"

	"github.com/rhuss/claudenode/pkg/api"
)

// ErrParameterNotSet is returned by Host.NodeParameter for absent parameters.
var ErrParameterNotSet = errors.New("parameter not set")

// Host is the narrow contract the node needs from its workflow runtime.
type Host interface {
	// InputData returns the items of the current execution.
	InputData() []api.Item

	// NodeParameter returns the value of parameter name resolved for the
	// item at index. Absent parameters return ErrParameterNotSet.
	NodeParameter(name string, index int) (any, error)

	// ContinueOnFail reports whether failed items become error records.
	ContinueOnFail() bool
}

// ItemOutcome describes one processed item.
type ItemOutcome struct {
	Index    int
	Output   *api.Item // nil when the item aborted the batch
	Err      error
	Duration time.Duration
}

// ItemObserver is implemented by hosts that want per-item progress.
// OnItem is called synchronously from the item loop.
type ItemObserver interface {
	OnItem(ItemOutcome)
}

// BatchHost is a Host over an in-memory batch. Parameters are shared by all
// items; string values may contain {{ $json.path }} expressions that are
// resolved against each item.
type BatchHost struct {
	Items      []api.Item
	Parameters map[string]any
	Continue   bool

	// Observer, when set, receives per-item outcomes.
	Observer func(ItemOutcome)
}

var _ Host = (*BatchHost)(nil)
var _ ItemObserver = (*BatchHost)(nil)

// NewBatchHost wraps plain JSON records as input items.
func NewBatchHost(records []api.JSON, params map[string]any, continueOnFail bool) *BatchHost {
	items := make([]api.Item, len(records))
	for i, r := range records {
		items[i] = api.Item{JSON: r}
	}
	return &BatchHost{Items: items, Parameters: params, Continue: continueOnFail}
}

func (h *BatchHost) InputData() []api.Item { return h.Items }

func (h *BatchHost) NodeParameter(name string, index int) (any, error) {
	v, ok := h.Parameters[name]
	if !ok || v == nil {
		return nil, ErrParameterNotSet
	}
	var item api.JSON
	if index >= 0 && index < len(h.Items) {
		item = h.Items[index].JSON
	}
	return Resolve(v, item)
}

func (h *BatchHost) ContinueOnFail() bool { return h.Continue }

func (h *BatchHost) OnItem(o ItemOutcome) {
	if h.Observer != nil {
		h.Observer(o)
	}
}
