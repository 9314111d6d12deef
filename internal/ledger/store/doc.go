// Package store reúne as implementações de ledger.Store.
//
// Todas gravam o snapshot inteiro numa única transação: ou o estado novo
// fica durável por completo, ou o anterior permanece intacto.
//
//   - memory: testes e execução local sem disco
//   - bolt: arquivo bbolt (padrão)
//   - sqlstore: Postgres (lib/pq) ou SQLite (modernc)
package store
