/*
Package session implements conversation access orchestration.

It serializes turn processing per conversation, integrating a local
refcounted lock table with an optional distributed locker and a pluggable
state store.
*/
package session
