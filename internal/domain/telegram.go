package domain

import "slices"

// TelegramConfig holds the bot credential and the ids of members selected for broadcasts.
type TelegramConfig struct {
	BotToken             string   `json:"botToken"`
	SelectedRecipientIDs []string `json:"selectedRecipientIds"`
}

func (c TelegramConfig) HasToken() bool {
	return c.BotToken != ""
}

// IsSelected returns true if the user receives broadcasts
func (c TelegramConfig) IsSelected(userID string) bool {
	return slices.Contains(c.SelectedRecipientIDs, userID)
}

// Toggle flips the selection of userID and returns the new state.
func (c *TelegramConfig) Toggle(userID string) bool {
	if i := slices.Index(c.SelectedRecipientIDs, userID); i >= 0 {
		c.SelectedRecipientIDs = slices.Delete(c.SelectedRecipientIDs, i, i+1)
		return false
	}
	c.SelectedRecipientIDs = append(c.SelectedRecipientIDs, userID)
	return true
}

// Remove drops userID from the recipients. Returns false if it was not selected.
func (c *TelegramConfig) Remove(userID string) bool {
	i := slices.Index(c.SelectedRecipientIDs, userID)
	if i < 0 {
		return false
	}
	c.SelectedRecipientIDs = slices.Delete(c.SelectedRecipientIDs, i, i+1)
	return true
}

// MaskedToken hides all but the bot id part of the token.
func (c TelegramConfig) MaskedToken() string {
	if c.BotToken == "" {
		return ""
	}
	for i, r := range c.BotToken {
		if r == ':' {
			return c.BotToken[:i+1] + "****"
		}
	}
	return "****"
}
