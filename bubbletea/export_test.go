package bubbletea

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// Blocks exports the current block list for testing.
func Blocks(m Model) []MessageBlock {
	return m.blocks
}

// Focus exports the focused block index for testing.
func Focus(m Model) int {
	return m.focus
}

// TerminalSafe exports terminalSafe for testing.
var TerminalSafe = terminalSafe
