// Package commands implements the tradeguard CLI: account login, guided
// consignment intake from an answers file, local compliance scoring and
// report download against a TradeGuard API.
package commands
