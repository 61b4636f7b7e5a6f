package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getUserID
    "fmt"     // fmt builds seat labels from row and column indices
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) { // begin getUserID helper
    v := c.Get("user_id") // fetch user_id from context
    switch t := v.(type) { // perform type switch on the value
    case uint64: // when already uint64
        return t, nil // return directly
    case int: // when stored as int
        return uint64(t), nil // convert to uint64
    case int64: // when stored as int64
        return uint64(t), nil // convert to uint64
    case float64: // when stored as float64
        return uint64(t), nil // convert to uint64
    case string: // when stored as string
        if n, err := strconv.ParseUint(t, 10, 64); err == nil { // parse string to uint64
            return n, nil // return parsed number
        }
    } // end type switch
    return 0, errors.New("invalid user_id in context") // return error if value is missing or invalid
}

// indexToRowLabel converts a zero-based index to an alphabetical row label like A, B, AA
func indexToRowLabel(i int) string { // begin function to compute row label
    if i < 0 { // negative indices are invalid
        return "" // return empty string for invalid index
    }
    res := []rune{} // accumulate runes for the label
    for { // loop until all digits consumed
        rem := i % 26 // compute remainder in base 26
        res = append(res, rune('A'+rem)) // append current letter
        i = i/26 - 1 // reduce i for next digit
        if i < 0 { // break when no more digits
            break // exit loop
        }
    } // end for
    for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 { // reverse the runes to build the label
        res[j], res[k] = res[k], res[j] // swap positions
    }
    return string(res) // convert rune slice to string
}

// layoutLabels builds the full set of seat labels for a vehicle with
// the given number of rows and seats per row, e.g. A1..A4, B1..B4.
func layoutLabels(rows, cols int) []string {
    labels := make([]string, 0, rows*cols)
    for r := 0; r < rows; r++ {
        row := indexToRowLabel(r)
        for c := 1; c <= cols; c++ {
            labels = append(labels, fmt.Sprintf("%s%d", row, c))
        }
    }
    return labels
}
