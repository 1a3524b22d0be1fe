package i18n

// Templates use fmt verbs; points are rendered with %d and Val with %.2f.

var koreanTexts = map[Key]string{
	MainMenu: `🌟 *메인 메뉴* 🌟

아래 버튼 중 하나를 선택하세요:

• 📚 도움말: 각 기능에 대한 자세한 설명
• 💰 포인트: 현재 포인트 현황 확인
• 📢 광고: 광고 보기 및 포인트 획득
• 🌐 언어: 언어 설정 변경`,
	HelpMenu: `📚 *도움말* 📚

각 기능에 대한 설명입니다:

• 💰 *포인트*
  - 현재 보유한 포인트를 확인합니다
  - 개인 채팅에서는 개인 포인트를
  - 그룹 채팅에서는 그룹 포인트를 표시합니다

• 📢 *광고*
  - 광고를 보고 포인트를 획득합니다
  - 하루에 한 번만 포인트를 획득할 수 있습니다
  - 광고는 랜덤으로 선택됩니다

• 🌐 *언어*
  - 한국어/영어 중 선택할 수 있습니다
  - 선택한 언어로 모든 메시지가 표시됩니다

• 📚 *도움말*
  - 이 메뉴를 표시합니다
  - 각 기능에 대한 자세한 설명을 제공합니다`,
	PointsPrivate: `💰 *포인트 현황* 💰

현재 보유 포인트: *%d*
환산 Val: *%.2f*`,
	PointsGroup: `💰 *그룹 포인트 현황* 💰

현재 그룹 포인트: *%d*
환산 Val: *%.2f*`,
	PointsError:       "❌ 포인트 조회 중 오류가 발생했습니다.",
	AdContent:         "%s",
	AdPointsEarned:    "🎉 %d 포인트를 획득하셨습니다!",
	AdNoAds:           "📢 현재 표시할 수 있는 광고가 없습니다.",
	AdError:           "❌ 광고 처리 중 오류가 발생했습니다.",
	AdLinkButton:      "광고 보러가기",
	LanguageMenu:      "🌐 *언어 설정* 🌐\nPlease select your preferred language.\n언어를 선택해주세요.",
	LanguageChangedKo: "✅ 언어가 한국어로 변경되었습니다.",
	LanguageChangedEn: "✅ Language has been changed to English.",
	LanguageError:     "❌ 언어 변경 중 오류가 발생했습니다.",
	UserRegistered:    "✅ 사용자 등록이 완료되었습니다.",
	UserExists:        "ℹ️ 이미 등록된 사용자입니다.",
	GroupRegistered:   "✅ 그룹 등록이 완료되었습니다.",
	GroupExists:       "ℹ️ 이미 등록된 그룹입니다.",
	RegistrationError: "❌ 등록 중 오류가 발생했습니다. 다시 시도해주세요.",
	NotRegistered:     "ℹ️ 아직 등록되지 않았습니다. /start 로 먼저 등록해주세요.",
	ClaimUnavailable:  "ℹ️ Val 전환 기능은 아직 준비 중입니다.",
	UnknownAction:     "❌ 알 수 없는 요청입니다.",
	GenericError:      "❌ 요청을 처리하는 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요.",
	ButtonAd:          "📢 광고",
	ButtonPoints:      "💰 포인트",
	ButtonHelp:        "📚 도움말",
	ButtonLanguage:    "🌐 언어",
	ButtonClaimVal:    "Claim $Val",
}

var englishTexts = map[Key]string{
	MainMenu: `🌟 *Valley Bot Menu* 🌟

Please select a menu:

• 📚 Help: Explains the function of each button.
• 💰 Points: Check your current points status.
• 📢 AD: View advertisements. You can earn points by viewing ads.
• 🌐 Language: Change language settings.`,
	HelpMenu: `📚 *Help* 📚

Here's what each menu does:

• 💰 *Points*
  - Private chat: Check your personal points status.
  - Group chat: Check the group's points status.

• 📢 *AD*
  - Shows an active advertisement.
  - You can earn points once per day by viewing ads.
  - Shows a notification if no ads are available.

• 🌐 *Language*
  - Choose between Korean and English.
  - All bot messages will be displayed in the selected language.

• 📚 *Help*
  - Shows this help message.`,
	PointsPrivate: `💰 *Points Status* 💰

Current points: *%d* points
Val: *%.2f*`,
	PointsGroup: `💰 *Group Points Status* 💰

Current group points: *%d* points
Val: *%.2f*`,
	PointsError:       "❌ Error occurred while checking points.",
	AdContent:         "%s",
	AdPointsEarned:    "🎉 You've earned %d points!",
	AdNoAds:           "📢 No active advertisements available.",
	AdError:           "❌ Error occurred while processing the advertisement.",
	AdLinkButton:      "Visit advertiser",
	LanguageMenu:      "🌐 *Language Settings* 🌐\n\nPlease select your preferred language.\n언어를 선택해주세요.",
	LanguageChangedKo: "✅ 언어가 한국어로 변경되었습니다.",
	LanguageChangedEn: "✅ Language has been changed to English.",
	LanguageError:     "❌ Error occurred while changing language.",
	UserRegistered:    "✅ User registration completed successfully.",
	UserExists:        "ℹ️ This user is already registered.",
	GroupRegistered:   "✅ Group registration completed successfully.",
	GroupExists:       "ℹ️ This group is already registered.",
	RegistrationError: "❌ An error occurred during registration. Please try again.",
	NotRegistered:     "ℹ️ This chat is not registered yet. Send /start first.",
	ClaimUnavailable:  "ℹ️ Claiming Val is not available yet.",
	UnknownAction:     "❌ Unknown request.",
	GenericError:      "❌ Something went wrong while handling your request. Please try again later.",
	ButtonAd:          "📢 AD",
	ButtonPoints:      "💰 Points",
	ButtonHelp:        "📚 Help",
	ButtonLanguage:    "🌐 Language",
	ButtonClaimVal:    "Claim $Val",
}
