package task

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
)

// DeriveTaskID returns the externally visible task id for an image: the hex
// md5 digest of the raw bytes. It is a pure function of the image alone, so a
// caller can query status later without resending the image and without the
// id leaking anything about the caller's credential.
func DeriveTaskID(image []byte) string {
	sum := md5.Sum(image)
	return hex.EncodeToString(sum[:])
}

// credentialDigest returns a one-way digest of the caller credential, used to
// isolate cached results between credentials without storing the credential
// itself in the state store.
func credentialDigest(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// lookupKey maps a task id and credential to the internal state-store key.
// With credential scoping enabled the key folds in the credential digest, so
// two callers submitting the same image get independent entries while sharing
// the same external task id.
func (c *Coordinator) lookupKey(taskID, credential string) string {
	if !c.config.ScopeByCredential {
		return taskID
	}
	return taskID + ":" + credentialDigest(credential)
}
