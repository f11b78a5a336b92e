package bdd

import "github.com/cucumber/godog"

// godog run ./tests/bdd/featureFiles/messaging_service.feature
// Feature: 買家與農友即時通訊
//   In order to negotiate produce orders
//   As marketplace buyers and farmers
//   I want to exchange messages in real time with unread tracking

//   Background:
//     Given "buyerA" 已登入並取得 Token "tokenA"
//     And "farmerB" 已登入並取得 Token "tokenB"

//   Scenario: 成功建立 1對1 對話
//     When "buyerA" 針對商品 "有機高麗菜" 建立對話 "farmerB"
//     Then 對話應該包含 "buyerA" 和 "farmerB"

//   Scenario: 重複建立回到同一對話
//     Given 已存在對話 with "buyerA" and "farmerB"
//     When "farmerB" 針對商品 "有機高麗菜" 建立對話 "buyerA"
//     Then 不會產生新的對話

//   Scenario: 發送與接收訊息
//     Given 已存在對話 with "buyerA" and "farmerB"
//     When "buyerA" 發送訊息 "請問高麗菜還有貨嗎?"
//     Then "farmerB" 應該收到訊息 "請問高麗菜還有貨嗎?"
//     And "farmerB" 的未讀數應該是 1

//   Scenario: 讀取後未讀歸零
//     Given "farmerB" 有 3 則未讀訊息
//     When "farmerB" 拉取對話訊息
//     Then "farmerB" 的未讀數應該是 0
//     And "buyerA" 應該收到已讀通知

func StepDefinitioninition1(arg1, arg2, arg3 string) error {
	return godog.ErrPending
}

func StepDefinitioninition2(arg1, arg2 string) error {
	return godog.ErrPending
}

func StepDefinitioninition3(arg1, arg2 string) error {
	return godog.ErrPending
}

func StepDefinitioninition4(arg1, arg2 string) error {
	return godog.ErrPending
}

func unreadCount(arg1 string, arg2 int) error {
	return godog.ErrPending
}

func noNewConversation() error {
	return godog.ErrPending
}

func hasUnreadMessages(arg1 string, arg2 int) error {
	return godog.ErrPending
}

func fetchMessages(arg1 string) error {
	return godog.ErrPending
}

func readReceipt(arg1 string) error {
	return godog.ErrPending
}

func token(arg1, arg2 string) error {
	return godog.ErrPending
}

func withAnd(arg1, arg2 string) error {
	return godog.ErrPending
}

func InitializeMessagingServiceScenario(ctx *godog.ScenarioContext) {
	ctx.Step(`^"([^"]*)" 針對商品 "([^"]*)" 建立對話 "([^"]*)"$`, StepDefinitioninition1)
	ctx.Step(`^對話應該包含 "([^"]*)" 和 "([^"]*)"$`, StepDefinitioninition2)
	ctx.Step(`^"([^"]*)" 發送訊息 "([^"]*)"$`, StepDefinitioninition3)
	ctx.Step(`^"([^"]*)" 應該收到訊息 "([^"]*)"$`, StepDefinitioninition4)
	ctx.Step(`^"([^"]*)" 的未讀數應該是 (\d+)$`, unreadCount)
	ctx.Step(`^不會產生新的對話$`, noNewConversation)
	ctx.Step(`^"([^"]*)" 有 (\d+) 則未讀訊息$`, hasUnreadMessages)
	ctx.Step(`^"([^"]*)" 拉取對話訊息$`, fetchMessages)
	ctx.Step(`^"([^"]*)" 應該收到已讀通知$`, readReceipt)
	ctx.Step(`^"([^"]*)" 已登入並取得 Token "([^"]*)"$`, token)
	ctx.Step(`^已存在對話 with "([^"]*)" and "([^"]*)"$`, withAnd)
}
