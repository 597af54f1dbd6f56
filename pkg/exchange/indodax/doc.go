// Package indodax implements the Exchange interface for the Indodax
// cryptocurrency exchange. It covers the public REST endpoints and the
// signed trade API (TAPI), normalizing the exchange's currency-keyed
// payloads into the canonical core types.
//
// Indodax API documentation: https://github.com/btcid/indodax-official-api-docs
package indodax
