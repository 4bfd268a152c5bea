// Package orderbook holds the order records of the housing market and the
// dominance-frontier index that answers "highest quality at or below price P".
//
// Offers live in two red-black trees sharing one comparator: the full index
// and the frontier. Insertions only touch the full index; the frontier is
// rebuilt in one scan before a clearing round and kept current on removal by
// re-admitting the offers a removed frontier member was covering.
//
// The package is single-writer and not safe for concurrent use.
package orderbook
