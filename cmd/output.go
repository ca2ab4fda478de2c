package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/moyu-x/file-mover/internal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	filePathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("147"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	statsBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)
)

var modeTitles = map[internal.OperationMode]string{
	internal.ModeMove:   "移动",
	internal.ModeCopy:   "复制",
	internal.ModeDelete: "删除",
	internal.ModeUndo:   "撤销",
}

// 按列宽对齐输出一张表，pathFrom 之后的列按路径着色，小于 0 时不着色
func renderTable(headers []string, rows [][]string, pathFrom int) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string, style func(int) lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style(i).Width(widths[i]).Render(cell)
		}
		return strings.Join(parts, "  ")
	}

	lines := []string{line(headers, func(int) lipgloss.Style { return headerStyle })}
	for _, row := range rows {
		lines = append(lines, line(row, func(i int) lipgloss.Style {
			if pathFrom >= 0 && i >= pathFrom {
				return filePathStyle
			}
			return lipgloss.NewStyle()
		}))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func printPreview(w io.Writer, preview *internal.PreviewResult) {
	title := fmt.Sprintf("预览 (%s): %d 个文件，共扫描 %d 个", modeTitles[preview.Mode], preview.Count, preview.Scanned)
	fmt.Fprintln(w, titleStyle.Render(title))
	if preview.Count == 0 {
		fmt.Fprintln(w, dimStyle.Render("没有匹配的文件"))
		return
	}

	var total int64
	rows := make([][]string, 0, len(preview.Tasks))
	for _, task := range preview.Tasks {
		mime := task.MIME
		if mime == "" {
			mime = "-"
		}
		rows = append(rows, []string{task.Name, task.SizeText, mime, task.SourcePath, task.DestPath})
		if task.Size > 0 {
			total += task.Size
		}
	}
	fmt.Fprintln(w, renderTable([]string{"NAME", "SIZE", "TYPE", "SOURCE", "DESTINATION"}, rows, 3))
	fmt.Fprintln(w, dimStyle.Render("合计: "+humanize.Bytes(uint64(total))))
}

func printEvent(w io.Writer, e internal.Event) {
	switch e.Kind {
	case internal.EventProgress:
		fmt.Fprintln(w, e.Message)
	case internal.EventWalkError:
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%s: %s", e.Path, e.Message)))
	default:
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%s: %s", e.Path, e.Message)))
	}
}

func printSummary(w io.Writer, summary *internal.Summary) {
	lines := []string{
		successStyle.Render(modeTitles[summary.Mode] + "完成"),
		labelStyle.Render("已处理: ") + fmt.Sprintf("%s 个文件 (%s)", humanize.Comma(int64(summary.Processed)), humanize.Bytes(uint64(summary.Bytes))),
		labelStyle.Render("失败: ") + fmt.Sprintf("%d 个", len(summary.Failures)),
		labelStyle.Render("耗时: ") + summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond).String(),
	}
	if summary.UndoRecordPath != "" && summary.Mode == internal.ModeMove {
		lines = append(lines, labelStyle.Render("撤销记录: ")+filePathStyle.Render(summary.UndoRecordPath))
	}
	fmt.Fprintln(w, statsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))

	for _, f := range summary.Failures {
		fmt.Fprintln(w, errorStyle.Render("  - "+f.String()))
	}
}

// confirm 在执行前询问用户，只有输入 y 或 yes 才继续
func confirm(in io.Reader, out io.Writer, mode internal.OperationMode, count int) bool {
	fmt.Fprintf(out, "确认%s %d 个文件? [y/N] ", modeTitles[mode], count)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
