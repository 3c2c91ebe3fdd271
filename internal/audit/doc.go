// Package audit implements the commits command. For an audit window it fetches
// the commits each team member authored in every repository listed in repos.txt,
// removes duplicates and writes a CSV report preceded by a short meta preamble.
package audit
