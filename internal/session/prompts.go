package session

// Reply texts sent by the state machine. The transport adapter renders the
// quick-reply options passed alongside as platform buttons.
const (
	promptStarted       = "Nice! Let's create a new quote!"
	promptAskDate       = "Let's start with the date. When did you hear these words? (dd.mm.yyyy or today)"
	promptBadDate       = "That doesn't look like a valid date. Example: 25.06.2005. Try again."
	promptAskPhrase     = "Cool! So, what was said on %s?"
	promptWiseWords     = "\"%s\", such wise words! ദ്ദി(˵ •̀ ᴗ - ˵ ) ✧\nNow, who is the wise person that said this?"
	promptAskSpeaker    = "Now, who is the wise person that said this?"
	promptDidYouMean    = "🤔 Did you mean %s? Tap a button, or send %s again to confirm someone new."
	promptAskImage      = "Seems like %s has no image. Do you want to add one?"
	promptImageYes      = "Awesome! Send me an image and I will add it to this person! 📸"
	promptImageNo       = "That's unfortunate(( Ok, let's continue."
	promptImageWhat     = "...What? Yes or No, please."
	promptSendImage     = "Send an image, please."
	promptPreview       = "Did %s really say that??? (¬_¬\")\nYour phrase is:"
	promptNextStep      = "Do you want to add a new phrase or finalize the quote?"
	promptNextPhrase    = "Yes, captain! What is the text of the next phrase?"
	promptDone          = "Done! (⸝⸝> ᴗ•⸝⸝)"
	promptCancelled     = "❌ Cancelled."
	promptUnknownOption = "I don't know what to do with that. Let's try again."
	promptStoreTrouble  = "I'm having trouble saving right now. Please try again."
	promptRenderTrouble = "Something went wrong while drawing your card. Please try again."
)

// Quick-reply option labels. The transport adapter maps taps on these back to
// the matching [Command].
const (
	OptionToday    = "📅 Today"
	OptionYes      = "✔️ Yes"
	OptionNo       = "❌ No"
	OptionAdd      = "➕ Add"
	OptionFinalize = "✔️ Finalize"
	OptionCancel   = "❌ Cancel"
)
