package tui

// UI Text Constants
const (
	TextTitle    = "Telegram Bot OCR"
	TextSubtitle = "Upload a PDF or image file to extract Persian text."

	TextPathPrompt = "File path: "
	TextFileTypes  = "PDF, PNG, or JPG"
	TextResult     = "Extracted Text"
	TextCopied     = "Copied!"

	TextFooterNoFile  = "Enter to select | Esc or Ctrl+C to quit"
	TextFooterFile    = "e extract | c copy | x clear | q quit"
	TextFooterRunning = "Ctrl+C to quit"
)
