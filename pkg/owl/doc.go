// Package owl implements the Owl augmented password-authenticated key
// exchange. A client and server sharing only a password establish a
// high-entropy session key; the server stores a password-derived record
// rather than the password, so a database compromise yields only an offline
// dictionary-attack target, and neither a network attacker nor a corrupted
// server can impersonate the client in later sessions.
//
// # Protocol Flow
//
// Registration runs once per user over a channel the deployment has already
// authenticated and encrypted:
//
//	Client                                Server
//	------                                ------
//	req = client.Register(U, w)  ----->   cred = server.Register(U, req)
//	                                      store.Put(U, cred)
//
// Login is three flows plus a server-side finish:
//
//	Client                                Server
//	------                                ------
//	req1, cs = client.AuthInit(U, w)
//	                     ----req1---->    resp, ss = server.AuthInit(U, req1, cred)
//	                     <---resp-----
//	req3, ckeys = client.AuthFinish(cs, resp)
//	                     ----req3---->    skeys = server.AuthFinish(U, req3, ss)
//	                     <--skeys.KC--
//	VerifyKeyConfirmation(ckeys.KCTest, skeys.KC)
//	                     --ckeys.KC-->    VerifyKeyConfirmation(skeys.KCTest, ckeys.KC)
//
// Every public value carries a Schnorr proof of knowledge of its discrete
// log, bound to the sender's identity string; both sides verify every proof
// before using the value. The two AuthFinishResults agree on Key, and each
// side's KCTest equals the peer's KC.
//
// All state machine steps are single-shot pure computations over values; the
// package performs no I/O and holds no global state. ClientState and
// ServerState are consumed exactly once and zeroized on every exit path.
package owl
