package network

import "unicode"

// MatchGlob reports whether text matches glob, where '*' matches any
// run of characters (including none) and '?' matches exactly one
// character. Matching is ASCII case-insensitive, matching srvx's
// match_ircglob (original_source/src/globtest.c exercises this exact
// contract: "*Zoot*!*@*.org" matches "Zoot!Zoot@services.org" but not
// "...@services.net").
func MatchGlob(text, glob string) bool {
	return matchGlob([]rune(foldCase(text)), []rune(foldCase(glob)))
}

// MatchGlobs reports whether two glob patterns could ever match a
// common string, used to decide whether a new ban/gag mask is already
// covered by an existing one (original_source/src/hash.c's
// match_ircglobs, used when adding bans and gags). '*' on either side
// matches anything on the other; '?' matches any single character on
// the other.
func MatchGlobs(a, b string) bool {
	return matchGlobs([]rune(foldCase(a)), []rune(foldCase(b)))
}

func foldCase(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}

func matchGlob(text, glob []rune) bool {
	// Standard backtracking wildcard match, iterative with a rollback
	// point for the most recent '*'.
	ti, gi := 0, 0
	starIdx, starMatch := -1, 0

	for ti < len(text) {
		switch {
		case gi < len(glob) && (glob[gi] == '?' || glob[gi] == text[ti]):
			ti++
			gi++
		case gi < len(glob) && glob[gi] == '*':
			starIdx = gi
			starMatch = ti
			gi++
		case starIdx != -1:
			gi = starIdx + 1
			starMatch++
			ti = starMatch
		default:
			return false
		}
	}
	for gi < len(glob) && glob[gi] == '*' {
		gi++
	}
	return gi == len(glob)
}

// matchGlobs decides whether two patterns (each possibly containing '*'
// and '?') can describe an overlapping set of concrete strings, via the
// standard two-pattern-intersection dynamic program: dp[i][j] is true
// when a[:i] and b[:j] can match a common (possibly empty) string.
func matchGlobs(a, b []rune) bool {
	n, m := len(a), len(b)
	dp := make([][]bool, n+1)
	for i := range dp {
		dp[i] = make([]bool, m+1)
	}
	dp[0][0] = true
	for i := 1; i <= n; i++ {
		if a[i-1] == '*' {
			dp[i][0] = dp[i-1][0]
		}
	}
	for j := 1; j <= m; j++ {
		if b[j-1] == '*' {
			dp[0][j] = dp[0][j-1]
		}
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			switch {
			case a[i-1] == '*':
				dp[i][j] = dp[i-1][j] || dp[i][j-1] || dp[i-1][j-1]
			case b[j-1] == '*':
				dp[i][j] = dp[i][j-1] || dp[i-1][j] || dp[i-1][j-1]
			case a[i-1] == '?' || b[j-1] == '?' || a[i-1] == b[j-1]:
				dp[i][j] = dp[i-1][j-1]
			default:
				dp[i][j] = false
			}
		}
	}
	return dp[n][m]
}
