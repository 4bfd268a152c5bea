// Package service wires the sale and rental markets, the shared housing
// stock and the statistics collector into one engine.
//
// It provides the calls households make between rounds (list, bid, reprice,
// withdraw) and the monthly clearing, decoupled from any transport.
package service
