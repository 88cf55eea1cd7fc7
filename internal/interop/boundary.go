package interop

import (
	"sync"
	"unsafe"

	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/session"
)

// NameTable holds one NUL-terminated display name per input. It is filled
// once and never freed; pointers from Lookup stay valid for the life of the
// process.
type NameTable struct {
	names map[inputsource.Source]unsafe.Pointer
}

// NewNameTable allocates every input name from h.
func NewNameTable(h Heap) *NameTable {
	t := &NameTable{names: make(map[inputsource.Source]unsafe.Pointer)}
	for _, s := range append(inputsource.All(), inputsource.Unknown) {
		t.names[s] = CString(h, inputsource.Name(s))
	}
	return t
}

// Lookup returns the borrowed name of an input code. Unknown codes map to
// the "Unknown" entry.
func (t *NameTable) Lookup(code uint16) unsafe.Pointer {
	return t.names[inputsource.Decode(code)]
}

// Boundary exposes a session through heap records and sentinel values.
// Every failure is logged at debug and reported as the sentinel of the call:
// Unknown, false, nil or an empty list.
type Boundary struct {
	mu      sync.Mutex
	session *session.Session
	heap    Heap
	names   *NameTable
}

func New(s *session.Session, h Heap, names *NameTable) *Boundary {
	if names == nil {
		names = NewNameTable(h)
	}
	return &Boundary{session: s, heap: h, names: names}
}

// Session returns the wrapped session.
func (b *Boundary) Session() *session.Session {
	return b.session
}

// EnumerateMonitors rescans and returns one record per monitor. Positions
// used by later calls refer to this scan. Release with FreeMonitorList.
func (b *Boundary) EnumerateMonitors() MonitorList {
	b.mu.Lock()
	defer b.mu.Unlock()

	monitors := b.session.Enumerate()
	if len(monitors) == 0 {
		return MonitorList{}
	}

	size := unsafe.Sizeof(MonitorInfo{}) * uintptr(len(monitors))
	list := MonitorList{Monitors: b.heap.Alloc(size), Count: uintptr(len(monitors))}
	items := list.Items()
	for i, m := range monitors {
		model, hasModel := m.ModelName()
		mfg, hasMfg := m.ManufacturerID()
		items[i] = MonitorInfo{
			ID:             CString(b.heap, m.ID()),
			ModelName:      optionalCString(b.heap, model, hasModel),
			ManufacturerID: optionalCString(b.heap, mfg, hasMfg),
		}
	}
	return list
}

// FreeMonitorList releases a list from EnumerateMonitors. An empty list is
// accepted.
func (b *Boundary) FreeMonitorList(list MonitorList) {
	if list.Monitors == nil {
		return
	}
	for _, info := range list.Items() {
		freeString(b.heap, info.ID)
		freeString(b.heap, info.ModelName)
		freeString(b.heap, info.ManufacturerID)
	}
	b.heap.Free(list.Monitors)
}

// CurrentInput returns the input code of the monitor at pos, or the
// Unknown code.
func (b *Boundary) CurrentInput(pos uint) uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()

	source, err := b.session.CurrentInput(position(pos))
	if err != nil {
		logger.Debugf("current input of monitor %d: %v", pos, err)
		return inputsource.Encode(inputsource.Unknown)
	}
	return inputsource.Encode(source)
}

func (b *Boundary) SetInput(pos uint, input uint16) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.session.SetInput(position(pos), inputsource.Decode(input)); err != nil {
		logger.Debugf("set input of monitor %d: %v", pos, err)
		return false
	}
	return true
}

// AvailableInputs returns the candidate inputs of the monitor at pos. On
// failure the list is empty with a nil pointer. Release with FreeInputList.
func (b *Boundary) AvailableInputs(pos uint) InputList {
	b.mu.Lock()
	defer b.mu.Unlock()

	inputs, err := b.session.AvailableInputs(position(pos))
	if err != nil || len(inputs) == 0 {
		if err != nil {
			logger.Debugf("available inputs of monitor %d: %v", pos, err)
		}
		return InputList{}
	}

	list := InputList{
		Inputs: b.heap.Alloc(unsafe.Sizeof(uint16(0)) * uintptr(len(inputs))),
		Count:  uintptr(len(inputs)),
	}
	items := list.Items()
	for i, s := range inputs {
		items[i] = inputsource.Encode(s)
	}
	return list
}

func (b *Boundary) FreeInputList(list InputList) {
	if list.Inputs != nil {
		b.heap.Free(list.Inputs)
	}
}

// InputName returns a borrowed pointer the caller must not free.
func (b *Boundary) InputName(input uint16) unsafe.Pointer {
	return b.names.Lookup(input)
}

// Alias returns a newly allocated copy of the alias, or nil when none is
// set. Release with FreeString.
func (b *Boundary) Alias(monitorID string, input uint16) unsafe.Pointer {
	b.mu.Lock()
	defer b.mu.Unlock()

	alias, ok := b.session.Config().Alias(monitorID, input)
	if !ok {
		return nil
	}
	return CString(b.heap, alias)
}

// SetAlias stores the alias and saves the document. False means the save
// failed; the in-memory change is kept.
func (b *Boundary) SetAlias(monitorID string, input uint16, alias string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saved(b.session.SetAlias(monitorID, input, alias))
}

func (b *Boundary) RemoveAlias(monitorID string, input uint16) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saved(b.session.RemoveAlias(monitorID, input))
}

func (b *Boundary) IsFavorite(monitorID string, input uint16) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session.Config().IsFavorite(monitorID, input)
}

func (b *Boundary) AddFavorite(monitorID string, input uint16) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saved(b.session.AddFavorite(monitorID, input))
}

func (b *Boundary) RemoveFavorite(monitorID string, input uint16) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saved(b.session.RemoveFavorite(monitorID, input))
}

// Favorites returns the favorites in insertion order. Release with
// FreeFavoriteList.
func (b *Boundary) Favorites() FavoriteList {
	b.mu.Lock()
	defer b.mu.Unlock()

	favorites := b.session.Config().ListFavorites()
	if len(favorites) == 0 {
		return FavoriteList{}
	}

	size := unsafe.Sizeof(FavoriteInfo{}) * uintptr(len(favorites))
	list := FavoriteList{Favorites: b.heap.Alloc(size), Count: uintptr(len(favorites))}
	items := list.Items()
	for i, f := range favorites {
		items[i] = FavoriteInfo{
			MonitorID:  CString(b.heap, f.MonitorID),
			InputValue: f.InputValue,
		}
	}
	return list
}

func (b *Boundary) FreeFavoriteList(list FavoriteList) {
	if list.Favorites == nil {
		return
	}
	for _, info := range list.Items() {
		freeString(b.heap, info.MonitorID)
	}
	b.heap.Free(list.Favorites)
}

// ReloadConfig drops unsaved changes and rereads the document.
func (b *Boundary) ReloadConfig() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session.ReloadConfig()
}

// FreeString releases a string from Alias. nil is accepted.
func (b *Boundary) FreeString(p unsafe.Pointer) {
	freeString(b.heap, p)
}

func (b *Boundary) saved(err error) bool {
	if err != nil {
		logger.Debugf("config save failed: %v", err)
		return false
	}
	return true
}

// position maps a foreign index to a snapshot position. Values beyond int
// range become -1, which no snapshot contains.
func position(pos uint) int {
	if pos > uint(^uint(0)>>1) {
		return -1
	}
	return int(pos)
}
