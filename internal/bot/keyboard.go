package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data of the main menu buttons
const (
	cbOperating = "menu:operating"
	cbToday     = "menu:today"
	cbMyLogs    = "menu:mylogs"
)

// Main menu keyboard
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚢 운항중", cbOperating),
			tgbotapi.NewInlineKeyboardButtonData("📅 오늘", cbToday),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 내 운항일지", cbMyLogs),
		),
	)
}
