package handlers

import (
	"mime"
	"path/filepath"
	"strings"
)

// ownExtensions is checked before the OS MIME registry to prevent
// misclassification of extensions the OS may map to unrelated types
// (e.g. .mod -> audio/x-mod).
var ownExtensions = map[string]string{
	".md":   "text/markdown",
	".rst":  "text/x-rst",
	".org":  "text/x-org",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
	".toml": "text/x-toml",
	".go":   "text/x-go",
	".mod":  "text/plain",
	".sum":  "text/plain",
	".sh":   "text/x-shellscript",
	".py":   "text/x-python",
	".log":  "text/plain",
}

// mimeForName returns the MIME type for a filename, falling back to
// application/octet-stream when the extension is unknown.
func mimeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := ownExtensions[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// typeLabels maps file extensions to the human-readable label shown in
// the listing's Type column.
var typeLabels = map[string]string{
	".txt": "Text File", ".md": "Text File", ".rst": "Text File",
	".pdf": "PDF",
	".doc": "Document", ".docx": "Document",
	".xls": "Spreadsheet", ".xlsx": "Spreadsheet",
	".ppt": "Presentation", ".pptx": "Presentation",
	".csv": "Data", ".json": "Data", ".xml": "Data",
	".zip": "Compressed", ".tar": "Compressed", ".gz": "Compressed",
	".7z": "Compressed", ".rar": "Compressed",
	".jpg": "Image", ".jpeg": "Image", ".png": "Image",
	".gif": "Image", ".svg": "Image", ".webp": "Image",
	".mp4": "Video", ".mkv": "Video", ".mov": "Video",
	".mp3": "Audio", ".wav": "Audio", ".flac": "Audio",
	".exe": "Executable", ".sh": "Script", ".py": "Code",
	".js": "Code", ".ts": "Code", ".go": "Code",
	".html": "Web", ".css": "Web",
}

// typeLabel classifies an entry for display. Directories are always
// "Folder"; unknown extensions fall back to the generic "File".
func typeLabel(isDir bool, name string) string {
	if isDir {
		return "Folder"
	}
	if label, ok := typeLabels[strings.ToLower(filepath.Ext(name))]; ok {
		return label
	}
	return "File"
}
