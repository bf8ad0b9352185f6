//go:build windows

package browser

import "golang.org/x/sys/windows/registry"

// lookupWindowsRegistry probes the App Paths key the original implementation
// reads on Windows when Chrome isn't found via PATH or the well-known
// install directories.
func lookupWindowsRegistry() (string, bool) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE,
		`SOFTWARE\Microsoft\Windows\CurrentVersion\App Paths\chrome.exe`, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer key.Close()

	path, _, err := key.GetStringValue("")
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}
