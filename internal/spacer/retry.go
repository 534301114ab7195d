package spacer

import "time"

// retryUntil runs check up to attempts times, sleeping delay between
// tries. check reports whether the condition holds; returning an error
// aborts immediately. The bool result is false when the budget ran out.
func retryUntil(attempts int, delay time.Duration, check func(attempt int) (bool, error)) (bool, error) {
	for attempt := 1; attempt <= attempts; attempt++ {
		ok, err := check(attempt)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if attempt < attempts {
			time.Sleep(delay)
		}
	}
	return false, nil
}
