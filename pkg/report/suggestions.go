package report

import (
	"strings"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// pairSuggestions is keyed by lower-case process name.
var pairSuggestions = map[types.PairKey][]string{
	{Process: "guardian.exe", Activity: "ReadFile"}: {
		"Enable a file scanning cache to avoid re-scanning recently checked files",
		"Scan files asynchronously so reads do not block the caller",
		"Exclude system files and known safe directories from deep scanning",
		"Consult a file reputation database before a full scan",
	},
	{Process: "guardian.exe", Activity: "WaitForSingleObject"}: {
		"Size the scanner thread pool to the number of cores to cut waiting",
		"Replace contended locks with lock-free queues where possible",
		"Switch to overlapped I/O so scanner threads do not park on completion",
		"Profile the critical sections of the scanning engine",
	},
	{Process: "chrome.exe", Activity: "VirtualAlloc"}: {
		"Pool allocations to reduce VirtualAlloc calls",
		"Tune garbage collection to allocate in larger, rarer chunks",
		"Use memory-mapped files for large data structures",
		"Enable memory compression",
	},
	{Process: "explorer.exe", Activity: "RegQueryValue"}: {
		"Cache frequently read registry values",
		"Batch registry reads",
		"Use registry change notifications instead of polling",
		"Keep hot keys in a small, local hive",
	},
	{Process: "system", Activity: "CreateProcess"}: {
		"Pool processes for frequently launched helpers",
		"Prebind DLLs to shorten loader time",
		"Enable application prefetching",
		"Trim startup dependencies",
	},
}

var familySuggestions = []struct {
	match       []string
	suggestions []string
}{
	{
		match: []string{"ReadFile", "WriteFile", "CreateFile", "FlushFileBuffers", "CopyFile", "MoveFile"},
		suggestions: []string{
			"Use asynchronous I/O with completion ports",
			"Increase buffer sizes and coalesce small writes",
			"Move hot files to faster storage",
		},
	},
	{
		match: []string{"VirtualAlloc", "VirtualFree", "HeapAlloc", "HeapCompact", "MapViewOfFile"},
		suggestions: []string{
			"Introduce memory pools for repeated allocations",
			"Enable large page support for big working sets",
		},
	},
	{
		match: []string{"RegOpenKey", "RegQueryValue", "RegSetValue", "RegCreateKey"},
		suggestions: []string{
			"Cache registry values and batch updates",
		},
	},
	{
		match: []string{"WaitForSingleObject", "CreateThread", "TerminateThread"},
		suggestions: []string{
			"Reduce lock contention and review thread pool sizing",
		},
	},
	{
		match: []string{"CreateProcess", "LoadLibrary", "FreeLibrary"},
		suggestions: []string{
			"Delay-load rarely used libraries and reuse long-lived processes",
		},
	},
	{
		match: []string{"FindFirstFile", "FindNextFile", "GetFileAttributes"},
		suggestions: []string{
			"Cache directory listings and avoid recursive rescans",
		},
	},
	{
		match: []string{"AnalyzeFile", "CheckSignature", "VerifySignature"},
		suggestions: []string{
			"Skip re-verification of unchanged, already trusted files",
		},
	},
}

// Suggestions returns remediation ideas for a pair. Known pairs get tailored advice,
// other pairs get advice for their system call family. The result is never empty.
func Suggestions(key types.PairKey) []string {
	lookup := types.PairKey{Process: strings.ToLower(key.Process), Activity: key.Activity}
	if s, ok := pairSuggestions[lookup]; ok {
		return append([]string(nil), s...)
	}
	for _, fam := range familySuggestions {
		for _, m := range fam.match {
			if m == key.Activity {
				return append([]string(nil), fam.suggestions...)
			}
		}
	}
	return []string{"Profile " + key.String() + " with ETW to find the slow code path"}
}
