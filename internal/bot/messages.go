package bot

// CallbackVerify is the callback payload of the verify button.
const CallbackVerify = "verify"

const (
	msgWelcome = "Welcome, %s! 👋\n\nWatch ads, earn rewards and invite friends to earn more."

	msgJoinPrompt = "%s, to start earning please join our channel and then press Verify."

	msgRejoinPrompt = "%s, it looks like you left our channel. Join again and press Verify to keep earning."

	msgNotMember = "%s, we could not find you in the channel yet. Join it and press Verify again."

	msgVerified = "✅ Thanks, %s! Your membership is confirmed. You can open the app now."

	msgWelcomeBack = "Welcome back, %s!\n\nJoined: %s\nVerified since: %s"

	msgAdmin = "Admin panel"

	msgInvite = "Invite friends with your personal link:\n%s"

	msgBalance = "%s, your balance:\n\nAds watched: %d\nEarned: %s\nFriends invited: %d"

	msgNeedStart = "Please send /start first."

	msgHelp = "Commands:\n/start - register and get started\n/verify - check your channel membership\n/balance - show your earnings\n/invite - get your referral link\n/admin - open the admin panel"

	msgFailure = "Something went wrong, please try again later."
)

const (
	btnJoin    = "📢 Join channel"
	btnVerify  = "✅ Verify"
	btnOpenApp = "🚀 Open app"
	btnAdmin   = "🛠 Open admin panel"
	btnShare   = "📤 Share link"

	answerVerified   = "Verified ✅"
	answerNotMember  = "Not a member yet"
	answerTryAgain   = "Try again later"
	dateLayout       = "2 Jan 2006"
	unknownDateLabel = "-"
)
