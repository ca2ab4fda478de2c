package classifier

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"

	"github.com/moyu-x/file-mover/internal"
)

// 内置分类表，进程启动后只读
var categories = []internal.ExtensionCategory{
	{
		Name: "Spreadsheets",
		Extensions: []string{".xlsx", ".xls", ".csv", ".ods", ".tsv", ".xlsm", ".xlsb",
			".xltx", ".xltm", ".xlt", ".xlam", ".xla"},
		Description: "Spreadsheets (Excel, CSV, ODS, etc.)",
	},
	{
		Name:        "PDF",
		Extensions:  []string{".pdf"},
		Description: "PDF documents",
	},
	{
		Name:        "Documents",
		Extensions:  []string{".doc", ".docx", ".txt", ".rtf", ".odt", ".md"},
		Description: "Documents (Word, text, etc.)",
	},
	{
		Name:        "Images",
		Extensions:  []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".svg", ".webp"},
		Description: "Images (JPG, PNG, GIF, etc.)",
	},
	{
		Name:        "Videos",
		Extensions:  []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"},
		Description: "Videos (MP4, AVI, MKV, etc.)",
	},
	{
		Name:        "Audio",
		Extensions:  []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma", ".m4a"},
		Description: "Audio (MP3, WAV, FLAC, etc.)",
	},
	{
		Name:        "Archives",
		Extensions:  []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"},
		Description: "Archives (ZIP, RAR, 7Z, etc.)",
	},
	{
		Name:        "Scripts",
		Extensions:  []string{".py", ".js", ".sh", ".bat", ".pl", ".rb"},
		Description: "Scripts (Python, JavaScript, Shell, etc.)",
	},
	{
		Name:        "SQL",
		Extensions:  []string{".sql"},
		Description: "SQL scripts",
	},
	{
		Name:        "Executables",
		Extensions:  []string{".exe", ".msi", ".app", ".bat"},
		Description: "Executables (EXE, MSI, APP, etc.)",
	},
}

// 名称小写 -> 分类下标
var categoryIndex = func() map[string]int {
	idx := make(map[string]int, len(categories))
	for i, c := range categories {
		idx[strings.ToLower(c.Name)] = i
	}
	return idx
}()

// ExtensionSet 有效扩展名集合，元素都是小写且以点开头
type ExtensionSet map[string]struct{}

// Categories 返回内置分类的副本，顺序固定
func Categories() []internal.ExtensionCategory {
	out := make([]internal.ExtensionCategory, len(categories))
	for i, c := range categories {
		exts := make([]string, len(c.Extensions))
		copy(exts, c.Extensions)
		out[i] = internal.ExtensionCategory{Name: c.Name, Extensions: exts, Description: c.Description}
	}
	return out
}

// Lookup 按名称查找分类，不区分大小写
func Lookup(name string) (internal.ExtensionCategory, bool) {
	i, ok := categoryIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return internal.ExtensionCategory{}, false
	}
	return categories[i], true
}

// ResolveExtensions 合并所选分类与自定义扩展名
// 未知分类直接忽略；自定义扩展名会去掉空白、转小写并补上前导点
func ResolveExtensions(selected []string, custom []string) ExtensionSet {
	set := make(ExtensionSet)

	for _, name := range selected {
		c, ok := Lookup(name)
		if !ok {
			continue
		}
		for _, ext := range c.Extensions {
			set[ext] = struct{}{}
		}
	}

	for _, ext := range custom {
		if ext = NormalizeExtension(ext); ext != "" {
			set[ext] = struct{}{}
		}
	}

	return set
}

// HasSelection 至少选了一个分类或一个有效的自定义扩展名
// 未知分类名也算选择，只是匹配不到文件
func HasSelection(categories, custom []string) bool {
	for _, c := range categories {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	for _, ext := range custom {
		if NormalizeExtension(ext) != "" {
			return true
		}
	}
	return false
}

// NormalizeExtension 规范化单个扩展名，空串返回空串
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ParseCustomExtensions 解析逗号分隔的扩展名输入，例如 "log, .BAK ,tmp"
func ParseCustomExtensions(text string) []string {
	var out []string
	for _, tok := range strings.Split(text, ",") {
		if ext := NormalizeExtension(tok); ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// Extension 返回小写的扩展名，带前导点
// ".csv"、".bashrc" 这类隐藏文件整个名字都是主干，没有扩展名
func Extension(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext == base {
		return ""
	}
	return strings.ToLower(ext)
}

// Matches 判断文件名的扩展名是否在集合中
func (s ExtensionSet) Matches(filename string) bool {
	ext := Extension(filename)
	if ext == "" || len(s) == 0 {
		return false
	}
	_, ok := s[ext]
	return ok
}

// Sorted 返回排序后的扩展名列表
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// MIMEType 根据扩展名返回 filetype 登记的 MIME 类型，不读取文件内容
func MIMEType(filename string) string {
	ext := strings.TrimPrefix(Extension(filename), ".")
	if ext == "" {
		return ""
	}
	kind := filetype.GetType(ext)
	if kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}
