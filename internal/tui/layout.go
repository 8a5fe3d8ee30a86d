package tui

const (
	footerHeight = 1
	headerHeight = 1

	contentPaddingWidth = 2
	contentMinWidth     = 30
	changesMaxWidth     = 48
	columnGapWidth      = 2

	paneHeaderHeight = 2

	commitLoadMoreThreshold = 5

	shortSHAWidth = 7

	dialogWidth       = 50
	dialogInputWidth  = 40
	helpDialogWidth   = 44
	branchPickerWidth = 50
	pickerMaxItems    = 10

	branchNameMaxLength = 128
	titleMaxLength      = 200
)

type layoutSizes struct {
	contentWidth int
	changesWidth int
	commitsWidth int
}

func (m Model) layoutSizes() layoutSizes {
	contentWidth := max(m.width-contentPaddingWidth, contentMinWidth)

	changesWidth := min(changesMaxWidth, contentWidth/2)
	if changesWidth < 1 {
		changesWidth = 1
	}

	return layoutSizes{
		contentWidth: contentWidth,
		changesWidth: changesWidth,
		commitsWidth: max(contentWidth-changesWidth-columnGapWidth, 1),
	}
}

func (m Model) mainHeight() int {
	return m.height - headerHeight - footerHeight
}

func listViewportHeight(height int) int {
	return max(height-paneHeaderHeight, 1)
}
