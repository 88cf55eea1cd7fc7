package interop

import (
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/bnema/monitor-switch/internal/ddc"
	"github.com/bnema/monitor-switch/internal/ddc/ddctest"
	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/monitor"
	"github.com/bnema/monitor-switch/internal/session"
	"github.com/bnema/monitor-switch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	boundary *Boundary
	heap     *trackingHeap
	bus      *ddctest.Bus
	path     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bus := ddctest.New(
		ddctest.Display("/dev/i2c-4", "vendorX", "111", "Desk Left"),
		ddc.Display{Bus: "/dev/i2c-5", ID: "vendorY", SerialNumber: "222"},
	)
	bus.SetRegister("/dev/i2c-4", ddc.FeatureInputSelect, 0x11)
	bus.SetRegister("/dev/i2c-5", ddc.FeatureInputSelect, 0x0f)

	path := filepath.Join(t.TempDir(), "config.json")
	heap := newTrackingHeap()
	s := session.New(monitor.NewDirectory(bus), path)
	b := New(s, heap, NewNameTable(newTrackingHeap()))

	f := &fixture{boundary: b, heap: heap, bus: bus, path: path}
	t.Cleanup(func() {
		assert.Zero(t, heap.doubleFrees, "double free")
		assert.Zero(t, heap.foreignFrees, "free of unknown pointer")
	})
	return f
}

func TestEnumerateAndFree(t *testing.T) {
	f := newFixture(t)

	list := f.boundary.EnumerateMonitors()
	require.Equal(t, uintptr(2), list.Count)

	items := list.Items()
	assert.Equal(t, "vendorX-111", GoString(items[0].ID))
	assert.Equal(t, "Desk Left", GoString(items[0].ModelName))
	assert.Equal(t, "vendorX", GoString(items[0].ManufacturerID))

	assert.Equal(t, "vendorY-222", GoString(items[1].ID))
	assert.Nil(t, items[1].ModelName)
	assert.Nil(t, items[1].ManufacturerID)

	idPtr := items[0].ID
	array := list.Monitors
	f.boundary.FreeMonitorList(list)

	assert.Zero(t, f.heap.liveCount(), "every allocation freed")
	assert.True(t, f.heap.poisoned(idPtr))
	assert.True(t, f.heap.poisoned(array))
}

func TestEnumerateWithoutMonitors(t *testing.T) {
	f := newFixture(t)
	f.bus.SetDisplays()

	list := f.boundary.EnumerateMonitors()
	assert.Nil(t, list.Monitors)
	assert.Zero(t, list.Count)
	assert.Empty(t, list.Items())

	f.boundary.FreeMonitorList(list)
	assert.Zero(t, f.heap.allocs)
}

func TestRepeatedEnumerationDoesNotLeak(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		f.boundary.FreeMonitorList(f.boundary.EnumerateMonitors())
	}
	assert.Zero(t, f.heap.liveCount())
	assert.Equal(t, uint64(5), f.boundary.Session().Generation())
}

func TestCurrentAndSetInput(t *testing.T) {
	f := newFixture(t)
	f.boundary.FreeMonitorList(f.boundary.EnumerateMonitors())

	assert.Equal(t, uint16(0x11), f.boundary.CurrentInput(0))
	assert.Equal(t, uint16(0x0f), f.boundary.CurrentInput(1))

	assert.True(t, f.boundary.SetInput(1, 0x12))
	value, _ := f.bus.Register("/dev/i2c-5", ddc.FeatureInputSelect)
	assert.Equal(t, uint16(0x12), value)
}

func TestSentinelsBeforeEnumerate(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, uint16(0xFF), f.boundary.CurrentInput(0))
	assert.False(t, f.boundary.SetInput(0, 0x11))

	list := f.boundary.AvailableInputs(0)
	assert.Nil(t, list.Inputs)
	assert.Zero(t, list.Count)
	assert.Empty(t, f.bus.Writes)
}

func TestStalePositionAfterReEnumeration(t *testing.T) {
	f := newFixture(t)
	f.boundary.FreeMonitorList(f.boundary.EnumerateMonitors())

	f.bus.SetDisplays(f.bus.Displays()[0])
	f.boundary.FreeMonitorList(f.boundary.EnumerateMonitors())

	assert.Equal(t, uint16(0xFF), f.boundary.CurrentInput(1))
	assert.False(t, f.boundary.SetInput(1, 0x11))
	assert.Nil(t, f.boundary.AvailableInputs(1).Inputs)
	assert.Empty(t, f.bus.Writes)
}

func TestHugePositionFails(t *testing.T) {
	f := newFixture(t)
	f.boundary.FreeMonitorList(f.boundary.EnumerateMonitors())

	assert.Equal(t, uint16(0xFF), f.boundary.CurrentInput(^uint(0)))
	assert.False(t, f.boundary.SetInput(^uint(0), 0x11))
}

func TestCommunicationFailureSentinel(t *testing.T) {
	f := newFixture(t)
	f.boundary.FreeMonitorList(f.boundary.EnumerateMonitors())
	f.bus.ReadErr = ddctest.ErrBus
	f.bus.WriteErr = ddctest.ErrBus

	assert.Equal(t, uint16(0xFF), f.boundary.CurrentInput(0))
	assert.False(t, f.boundary.SetInput(0, 0x11))
}

func TestAvailableInputs(t *testing.T) {
	f := newFixture(t)
	f.boundary.FreeMonitorList(f.boundary.EnumerateMonitors())

	list := f.boundary.AvailableInputs(0)
	assert.Equal(t, []uint16{0x11, 0x12, 0x0f, 0x10, 0x15, 0x16}, append([]uint16(nil), list.Items()...))

	array := list.Inputs
	f.boundary.FreeInputList(list)
	assert.Zero(t, f.heap.liveCount())
	assert.True(t, f.heap.poisoned(array))

	f.boundary.FreeInputList(InputList{})
}

func TestInputNameIsBorrowed(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "HDMI 1", GoString(f.boundary.InputName(0x11)))
	assert.Equal(t, "USB-C 3", GoString(f.boundary.InputName(0x17)))
	assert.Equal(t, "Unknown", GoString(f.boundary.InputName(0x42)))
	assert.Equal(t, "Unknown", GoString(f.boundary.InputName(0xFF)))

	// Same pointer every time, never from the caller's heap.
	assert.Equal(t, f.boundary.InputName(0x0f), f.boundary.InputName(0x0f))
	assert.Zero(t, f.heap.allocs)
}

func TestNameTableCoversEveryInput(t *testing.T) {
	heap := newTrackingHeap()
	table := NewNameTable(heap)
	assert.Equal(t, len(inputsource.All())+1, heap.liveCount())

	for _, s := range inputsource.All() {
		assert.Equal(t, inputsource.Name(s), GoString(table.Lookup(uint16(s))))
	}
}

func TestAliasLifecycle(t *testing.T) {
	f := newFixture(t)

	assert.Nil(t, f.boundary.Alias("vendorX-111", 0x11))

	require.True(t, f.boundary.SetAlias("vendorX-111", 0x11, "Laptop"))
	p := f.boundary.Alias("vendorX-111", 0x11)
	require.NotNil(t, p)
	assert.Equal(t, "Laptop", GoString(p))
	f.boundary.FreeString(p)
	assert.True(t, f.heap.poisoned(p))

	alias, ok := store.LoadFrom(f.path).Alias("vendorX-111", 0x11)
	assert.True(t, ok)
	assert.Equal(t, "Laptop", alias)

	require.True(t, f.boundary.RemoveAlias("vendorX-111", 0x11))
	assert.Nil(t, f.boundary.Alias("vendorX-111", 0x11))

	f.boundary.FreeString(nil)
	assert.Zero(t, f.heap.liveCount())
}

func TestFavoritesLifecycle(t *testing.T) {
	f := newFixture(t)

	list := f.boundary.Favorites()
	assert.Nil(t, list.Favorites)
	f.boundary.FreeFavoriteList(list)

	require.True(t, f.boundary.AddFavorite("vendorY-222", 0x0f))
	require.True(t, f.boundary.AddFavorite("vendorX-111", 0x11))
	require.True(t, f.boundary.AddFavorite("vendorY-222", 0x0f))
	assert.True(t, f.boundary.IsFavorite("vendorX-111", 0x11))
	assert.False(t, f.boundary.IsFavorite("vendorX-111", 0x12))

	list = f.boundary.Favorites()
	require.Equal(t, uintptr(2), list.Count)
	items := list.Items()
	assert.Equal(t, "vendorY-222", GoString(items[0].MonitorID))
	assert.Equal(t, uint16(0x0f), items[0].InputValue)
	assert.Equal(t, "vendorX-111", GoString(items[1].MonitorID))
	f.boundary.FreeFavoriteList(list)

	require.True(t, f.boundary.RemoveFavorite("vendorY-222", 0x0f))
	assert.False(t, f.boundary.IsFavorite("vendorY-222", 0x0f))
	assert.Zero(t, f.heap.liveCount())
}

func TestSaveFailureReturnsFalse(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, store.New(blocker).Save())

	s := session.New(monitor.NewDirectory(ddctest.New()), filepath.Join(blocker, "config.json"))
	b := New(s, newTrackingHeap(), nil)

	assert.False(t, b.SetAlias("m", 0x11, "x"))
	assert.False(t, b.AddFavorite("m", 0x11))
	// The in-memory change survives a failed save.
	assert.True(t, b.IsFavorite("m", 0x11))
}

func TestReloadConfig(t *testing.T) {
	f := newFixture(t)

	other := store.LoadFrom(f.path)
	other.AddFavorite("vendorX-111", 0x12)
	require.NoError(t, other.Save())

	assert.False(t, f.boundary.IsFavorite("vendorX-111", 0x12))
	f.boundary.ReloadConfig()
	assert.True(t, f.boundary.IsFavorite("vendorX-111", 0x12))
}

func TestRecordLayout(t *testing.T) {
	ptr := unsafe.Sizeof(uintptr(0))
	assert.Equal(t, 3*ptr, unsafe.Sizeof(MonitorInfo{}))
	assert.Equal(t, 2*ptr, unsafe.Sizeof(MonitorList{}))
	assert.Equal(t, 2*ptr, unsafe.Sizeof(InputList{}))
	assert.Equal(t, 2*ptr, unsafe.Sizeof(FavoriteInfo{}))
	assert.Equal(t, ptr, unsafe.Offsetof(FavoriteInfo{}.InputValue))
}

func TestCString(t *testing.T) {
	heap := newTrackingHeap()
	for _, s := range []string{"", "a", "vendorX-111", "ünïcode"} {
		p := CString(heap, s)
		assert.Equal(t, s, GoString(p))
		heap.Free(p)
	}
	assert.Zero(t, heap.liveCount())
	assert.Equal(t, "", GoString(nil))
}
