// Package repositories implements the local session persistence for emosense.
//
// All state lives in a single SQLite key-value table (see shared.RunMigrations). Values are JSON strings and
// the last writer wins: there is no locking beyond the atomicity of a single statement, so readers must
// tolerate values that change underneath them.
//
// Key Implementations:
//   - [KVRepository] : Get/Set/Delete/Keys over the storage table
//   - [SessionStore] : the cached [models.Profile] and emotion history
//   - [TokenHolder] : the bearer token
//   - [Watcher] : polling plus file-change notifications so other processes converge on the same profile
package repositories
