// Command libmonswitch builds the C shared library used by native
// front-ends:
//
//	go build -buildmode=c-shared -o libmonswitch.so ./cmd/libmonswitch
//
// Every call takes the session handle returned by monitor_session_new.
// Records returned by the library are owned by the caller until passed to
// the matching *_free function. Names from input_source_name are borrowed
// and must not be freed.
package main

/*
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>

typedef uintptr_t MonitorSession;
typedef uint16_t InputSource;

typedef struct {
    char *id;
    char *model_name;
    char *manufacturer_id;
} MonitorInfo;

typedef struct {
    MonitorInfo *monitors;
    size_t count;
} MonitorList;

typedef struct {
    InputSource *inputs;
    size_t count;
} InputSourceList;

typedef struct {
    char *monitor_id;
    uint16_t input_value;
} FavoriteInfo;

typedef struct {
    FavoriteInfo *favorites;
    size_t count;
} FavoriteList;
*/
import "C"

import (
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/bnema/monitor-switch/internal/config"
	"github.com/bnema/monitor-switch/internal/ddc"
	"github.com/bnema/monitor-switch/internal/interop"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/monitor"
	"github.com/bnema/monitor-switch/internal/session"
)

var (
	initOnce sync.Once
	heap     interop.Heap
	names    *interop.NameTable
)

func setup() {
	initOnce.Do(func() {
		if err := config.Init(); err != nil {
			logger.Debugf("settings unavailable, using defaults: %v", err)
		}
		if level := config.Get().Logging.LogLevel; level != "" {
			logger.SetLevel(level)
		}

		h, err := interop.NewCHeap()
		if err != nil {
			// Only reachable when built without cgo, which cannot export.
			panic(err)
		}
		heap = h
		names = interop.NewNameTable(heap)
	})
}

func boundary(h C.MonitorSession) *interop.Boundary {
	if h == 0 {
		return nil
	}
	defer func() {
		// cgo.Handle.Value panics on an invalid handle.
		if r := recover(); r != nil {
			logger.Debugf("invalid session handle %d", uintptr(h))
		}
	}()
	b, _ := cgo.Handle(h).Value().(*interop.Boundary)
	return b
}

func goString(p *C.char) (string, bool) {
	if p == nil {
		return "", false
	}
	return C.GoString(p), true
}

//export monitor_core_init
func monitor_core_init() {
	setup()
}

// monitor_session_new opens a session. config_path selects the store
// document; NULL means the configured or default location.
//
//export monitor_session_new
func monitor_session_new(configPath *C.char) C.MonitorSession {
	setup()
	settings := config.Get()

	bus, err := ddc.New(ddc.Options{
		Backend:     settings.DDC.Backend,
		DdcutilPath: settings.DDC.DdcutilPath,
		ExtraArgs:   settings.DDC.ExtraArgs,
	})
	if err != nil {
		logger.Debugf("no DDC/CI backend: %v", err)
	}

	storePath := settings.Store.Path
	if p, ok := goString(configPath); ok {
		storePath = p
	}

	s := session.New(monitor.NewDirectory(bus), storePath)
	return C.MonitorSession(cgo.NewHandle(interop.New(s, heap, names)))
}

//export monitor_session_free
func monitor_session_free(h C.MonitorSession) {
	b := boundary(h)
	if b == nil {
		return
	}
	if err := b.Session().Close(); err != nil {
		logger.Debugf("close session: %v", err)
	}
	cgo.Handle(h).Delete()
}

//export monitor_enumerate
func monitor_enumerate(h C.MonitorSession) C.MonitorList {
	b := boundary(h)
	if b == nil {
		return C.MonitorList{}
	}
	list := b.EnumerateMonitors()
	return *(*C.MonitorList)(unsafe.Pointer(&list))
}

//export monitor_list_free
func monitor_list_free(h C.MonitorSession, list C.MonitorList) {
	if b := boundary(h); b != nil {
		b.FreeMonitorList(*(*interop.MonitorList)(unsafe.Pointer(&list)))
	}
}

//export monitor_get_current_input
func monitor_get_current_input(h C.MonitorSession, index C.size_t) C.InputSource {
	b := boundary(h)
	if b == nil {
		return 0xFF
	}
	return C.InputSource(b.CurrentInput(uint(index)))
}

//export monitor_set_input
func monitor_set_input(h C.MonitorSession, index C.size_t, input C.InputSource) C.bool {
	b := boundary(h)
	if b == nil {
		return false
	}
	return C.bool(b.SetInput(uint(index), uint16(input)))
}

//export monitor_get_available_inputs
func monitor_get_available_inputs(h C.MonitorSession, index C.size_t) C.InputSourceList {
	b := boundary(h)
	if b == nil {
		return C.InputSourceList{}
	}
	list := b.AvailableInputs(uint(index))
	return *(*C.InputSourceList)(unsafe.Pointer(&list))
}

//export input_source_list_free
func input_source_list_free(h C.MonitorSession, list C.InputSourceList) {
	if b := boundary(h); b != nil {
		b.FreeInputList(*(*interop.InputList)(unsafe.Pointer(&list)))
	}
}

//export input_source_name
func input_source_name(input C.InputSource) *C.char {
	setup()
	return (*C.char)(names.Lookup(uint16(input)))
}

//export config_get_alias
func config_get_alias(h C.MonitorSession, monitorID *C.char, inputValue C.uint16_t) *C.char {
	b := boundary(h)
	id, ok := goString(monitorID)
	if b == nil || !ok {
		return nil
	}
	return (*C.char)(b.Alias(id, uint16(inputValue)))
}

//export config_set_alias
func config_set_alias(h C.MonitorSession, monitorID *C.char, inputValue C.uint16_t, alias *C.char) C.bool {
	b := boundary(h)
	id, okID := goString(monitorID)
	text, okAlias := goString(alias)
	if b == nil || !okID || !okAlias {
		return false
	}
	return C.bool(b.SetAlias(id, uint16(inputValue), text))
}

//export config_remove_alias
func config_remove_alias(h C.MonitorSession, monitorID *C.char, inputValue C.uint16_t) C.bool {
	b := boundary(h)
	id, ok := goString(monitorID)
	if b == nil || !ok {
		return false
	}
	return C.bool(b.RemoveAlias(id, uint16(inputValue)))
}

//export config_is_favorite
func config_is_favorite(h C.MonitorSession, monitorID *C.char, inputValue C.uint16_t) C.bool {
	b := boundary(h)
	id, ok := goString(monitorID)
	if b == nil || !ok {
		return false
	}
	return C.bool(b.IsFavorite(id, uint16(inputValue)))
}

//export config_add_favorite
func config_add_favorite(h C.MonitorSession, monitorID *C.char, inputValue C.uint16_t) C.bool {
	b := boundary(h)
	id, ok := goString(monitorID)
	if b == nil || !ok {
		return false
	}
	return C.bool(b.AddFavorite(id, uint16(inputValue)))
}

//export config_remove_favorite
func config_remove_favorite(h C.MonitorSession, monitorID *C.char, inputValue C.uint16_t) C.bool {
	b := boundary(h)
	id, ok := goString(monitorID)
	if b == nil || !ok {
		return false
	}
	return C.bool(b.RemoveFavorite(id, uint16(inputValue)))
}

//export config_get_favorites
func config_get_favorites(h C.MonitorSession) C.FavoriteList {
	b := boundary(h)
	if b == nil {
		return C.FavoriteList{}
	}
	list := b.Favorites()
	return *(*C.FavoriteList)(unsafe.Pointer(&list))
}

//export favorite_list_free
func favorite_list_free(h C.MonitorSession, list C.FavoriteList) {
	if b := boundary(h); b != nil {
		b.FreeFavoriteList(*(*interop.FavoriteList)(unsafe.Pointer(&list)))
	}
}

//export config_reload
func config_reload(h C.MonitorSession) {
	if b := boundary(h); b != nil {
		b.ReloadConfig()
	}
}

//export string_free
func string_free(h C.MonitorSession, s *C.char) {
	if b := boundary(h); b != nil {
		b.FreeString(unsafe.Pointer(s))
	}
}

func main() {}
