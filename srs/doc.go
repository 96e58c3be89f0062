// Package srs schedules flashcard reviews with the SuperMemo-2 algorithm.
//
// Every function is pure: items are plain values, the result of a review is a
// new value, and "now" is always supplied by the caller or by a Clock. The
// package does not serialize concurrent reviews of the same item; callers that
// persist items must apply updates for one item ID one at a time.
package srs
