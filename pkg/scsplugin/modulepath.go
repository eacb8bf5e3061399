package scsplugin

import (
	"errors"
	"path/filepath"
	"unsafe"
)

/*
#cgo windows LDFLAGS: -lpsapi
#cgo linux LDFLAGS: -ldl

#ifdef _WIN32
#define WIN32_LEAN_AND_MEAN
#include <windows.h>
#include <libloaderapi.h>
#include <stdlib.h>

static char* scs_plugin_module_path() {
    HMODULE hModule = NULL;
    if (!GetModuleHandleExA(GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS |
                           GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT,
                           (LPCTSTR)scs_plugin_module_path,
                           &hModule)) {
        return NULL;
    }

    DWORD size = MAX_PATH;
    char* buffer = NULL;
    while (1) {
        char* grown = (char*)realloc(buffer, size);
        if (!grown) {
            free(buffer);
            return NULL;
        }
        buffer = grown;
        DWORD result = GetModuleFileNameA(hModule, buffer, size);
        if (result == 0) {
            free(buffer);
            return NULL;
        } else if (result < size) {
            return buffer;
        }
        size *= 2;
    }
}

#elif __linux__ || __APPLE__

#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdlib.h>
#include <string.h>

static char* scs_plugin_module_path() {
    Dl_info dl_info;
    if (dladdr((void*)scs_plugin_module_path, &dl_info) == 0 || dl_info.dli_fname == NULL) {
        return NULL;
    }
    return strdup(dl_info.dli_fname);
}

#endif
*/
import "C"

// ErrModulePath is returned when the loader cannot tell where the plugin
// library lives.
var ErrModulePath = errors.New("unable to resolve plugin module path")

// ModulePath returns the absolute path of the library this code was loaded
// from, e.g. <game>/bin/win_x64/plugins/telemetry_bridge.dll.
func ModulePath() (string, error) {
	p := C.scs_plugin_module_path()
	if p == nil {
		return "", ErrModulePath
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p), nil
}

// ModuleDir returns the directory holding the plugin library. Config and
// logs are resolved relative to it.
func ModuleDir() (string, error) {
	p, err := ModulePath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}
