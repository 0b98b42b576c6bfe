/*
Package conversation drives the quote dialog for each chat user.

A Bot consumes inbound messages one at a time per user and answers each with at most
one reply. A "/price <domain>" command searches every partition and opens a session;
later messages answer the session's pending question until a final price is quoted
and the session is deleted:

	(none) --/price d--> awaiting_language_code --code--> awaiting_copy_decision
	awaiting_copy_decision --no--> quote, (none)
	awaiting_copy_decision --yes--> awaiting_word_count --N>0--> quote, (none)

Invalid answers reprompt without changing the session. A new /price command while a
session is active discards it and starts over. Messages from users without a session
are ignored.
*/
package conversation
