package generator

// Stage is one step of a workflow with the system calls it usually issues.
type Stage struct {
	Name       string
	Activities []string
}

// Workflow models the system-call behaviour of one Windows executable.
type Workflow struct {
	Name       string
	Executable string
	Weight     float64
	Stages     []Stage
	// Bottlenecks maps a bottleneck pattern to the calls that suffer from it.
	Bottlenecks map[string][]string
}

func (w Workflow) isBottleneck(activity string) bool {
	for _, calls := range w.Bottlenecks {
		for _, c := range calls {
			if c == activity {
				return true
			}
		}
	}
	return false
}

// Workflows are the behaviours the generator mixes, in selection order.
var Workflows = []Workflow{
	{
		Name:       "document_editing",
		Executable: "notepad.exe",
		Weight:     0.25,
		Stages: []Stage{
			{"Application_Startup", []string{"CreateProcess", "LoadLibrary", "RegOpenKey", "RegQueryValue"}},
			{"File_Opening", []string{"CreateFile", "ReadFile", "GetFileSize"}},
			{"Content_Modification", []string{"WriteFile", "VirtualAlloc", "SetFilePointer"}},
			{"Auto_Save", []string{"WriteFile", "FlushFileBuffers", "SetFileTime"}},
			{"File_Closing", []string{"WriteFile", "CloseHandle", "RegCloseKey"}},
			{"Application_Shutdown", []string{"FreeLibrary", "TerminateProcess"}},
		},
		Bottlenecks: map[string][]string{
			"large_file_io":   {"ReadFile", "WriteFile"},
			"memory_pressure": {"VirtualAlloc"},
		},
	},
	{
		Name:       "web_browsing",
		Executable: "chrome.exe",
		Weight:     0.30,
		Stages: []Stage{
			{"Browser_Startup", []string{"CreateProcess", "LoadLibrary", "VirtualAlloc", "CreateThread"}},
			{"Profile_Loading", []string{"CreateFile", "ReadFile", "RegOpenKey", "RegQueryValue"}},
			{"Network_Request", []string{"CreateFile", "WriteFile", "ReadFile", "WaitForSingleObject"}},
			{"Cache_Management", []string{"CreateFile", "WriteFile", "DeleteFile", "VirtualAlloc"}},
			{"Tab_Management", []string{"CreateThread", "TerminateThread", "VirtualAlloc", "VirtualFree"}},
			{"Browser_Shutdown", []string{"WriteFile", "CloseHandle", "ExitThread", "TerminateProcess"}},
		},
		Bottlenecks: map[string][]string{
			"memory_allocation": {"VirtualAlloc", "CreateThread"},
			"network_latency":   {"WaitForSingleObject", "ReadFile"},
		},
	},
	{
		Name:       "file_management",
		Executable: "explorer.exe",
		Weight:     0.20,
		Stages: []Stage{
			{"Explorer_Startup", []string{"CreateProcess", "LoadLibrary", "RegOpenKey"}},
			{"Directory_Enumeration", []string{"CreateFile", "ReadFile", "FindFirstFile", "FindNextFile"}},
			{"File_Operations", []string{"CopyFile", "MoveFile", "DeleteFile", "CreateDirectory"}},
			{"Property_Viewing", []string{"GetFileAttributes", "GetFileSize", "GetFileTime"}},
			{"Thumbnail_Generation", []string{"CreateFile", "ReadFile", "VirtualAlloc", "WriteFile"}},
		},
		Bottlenecks: map[string][]string{
			"directory_scan": {"FindFirstFile", "FindNextFile"},
			"file_access":    {"CreateFile", "ReadFile"},
		},
	},
	{
		Name:       "antivirus_scan",
		Executable: "guardian.exe",
		Weight:     0.15,
		Stages: []Stage{
			{"Scanner_Initialization", []string{"CreateProcess", "LoadLibrary", "RegOpenKey", "CreateThread"}},
			{"Definition_Update", []string{"CreateFile", "ReadFile", "WriteFile", "VerifySignature"}},
			{"File_Scanning", []string{"CreateFile", "ReadFile", "AnalyzeFile", "CheckSignature"}},
			{"Threat_Detection", []string{"QuarantineFile", "WriteFile", "LogEvent"}},
			{"Report_Generation", []string{"CreateFile", "WriteFile", "RegSetValue"}},
		},
		Bottlenecks: map[string][]string{
			"deep_scan":   {"AnalyzeFile", "CheckSignature"},
			"file_access": {"ReadFile", "CreateFile"},
		},
	},
	{
		Name:       "system_maintenance",
		Executable: "system",
		Weight:     0.10,
		Stages: []Stage{
			{"Task_Scheduler", []string{"CreateProcess", "WaitForSingleObject", "SetTimer"}},
			{"Registry_Maintenance", []string{"RegOpenKey", "RegQueryValue", "RegSetValue", "RegCloseKey"}},
			{"Memory_Management", []string{"VirtualAlloc", "VirtualFree", "HeapCompact"}},
			{"Disk_Cleanup", []string{"DeleteFile", "FindFirstFile", "RemoveDirectory"}},
		},
		Bottlenecks: map[string][]string{
			"synchronization": {"WaitForSingleObject"},
			"registry_access": {"RegQueryValue", "RegSetValue"},
		},
	},
}

// callCategories groups every known system call by function, in lookup order.
var callCategories = []struct {
	name  string
	calls []string
}{
	{"file_operations", []string{"CreateFile", "ReadFile", "WriteFile", "CloseHandle", "DeleteFile",
		"CopyFile", "MoveFile", "GetFileSize", "SetFilePointer", "FlushFileBuffers"}},
	{"process_management", []string{"CreateProcess", "TerminateProcess", "OpenProcess", "GetProcessId"}},
	{"memory_operations", []string{"VirtualAlloc", "VirtualFree", "HeapAlloc", "HeapFree", "MapViewOfFile"}},
	{"registry_operations", []string{"RegOpenKey", "RegQueryValue", "RegSetValue", "RegCloseKey", "RegCreateKey"}},
	{"library_management", []string{"LoadLibrary", "GetProcAddress", "FreeLibrary"}},
	{"thread_operations", []string{"CreateThread", "ExitThread", "TerminateThread", "WaitForSingleObject"}},
	{"file_system", []string{"FindFirstFile", "FindNextFile", "CreateDirectory", "RemoveDirectory",
		"GetFileAttributes", "SetFileAttributes", "GetFileTime", "SetFileTime"}},
	{"security_operations", []string{"AnalyzeFile", "CheckSignature", "VerifySignature", "QuarantineFile"}},
	{"system_operations", []string{"SetTimer", "HeapCompact", "LogEvent"}},
}

// Category returns the functional group of a system call, or "unknown".
func Category(activity string) string {
	for _, cat := range callCategories {
		for _, c := range cat.calls {
			if c == activity {
				return cat.name
			}
		}
	}
	return "unknown"
}

func allCalls() []string {
	var out []string
	for _, cat := range callCategories {
		out = append(out, cat.calls...)
	}
	return out
}

var fileContexts = map[string][]string{
	"user_documents": {
		`C:\Users\Student\Documents\thesis_chapter1.docx`,
		`C:\Users\Student\Documents\research_notes.txt`,
		`C:\Users\Student\Documents\presentation.pptx`,
	},
	"system_files": {
		`C:\Windows\System32\kernel32.dll`,
		`C:\Windows\System32\user32.dll`,
		`C:\Program Files\Common Files\system.dll`,
	},
	"temp_files": {
		`C:\Temp\cache_12345.tmp`,
		`C:\Users\Student\AppData\Local\Temp\session.tmp`,
		`C:\Windows\Temp\update_cache.tmp`,
	},
	"downloads": {
		`C:\Users\Student\Downloads\research_paper.pdf`,
		`C:\Users\Student\Downloads\software_installer.exe`,
		`C:\Users\Student\Downloads\dataset.csv`,
	},
	"application_files": {
		`C:\Program Files\Application\config.ini`,
		`C:\Program Files\Browser\profile.dat`,
		`C:\Program Files\Antivirus\definitions.db`,
	},
}

var workflowContexts = map[string][]string{
	"document_editing":   {"user_documents", "temp_files"},
	"web_browsing":       {"temp_files", "downloads", "application_files"},
	"file_management":    {"user_documents", "downloads", "system_files"},
	"antivirus_scan":     {"system_files", "user_documents", "downloads"},
	"system_maintenance": {"system_files", "temp_files"},
}
