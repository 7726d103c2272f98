package services

import (
	"sort"

	"marketplace-service/models"
)

// ValidateCart classifies each line against the catalog snapshot and groups
// the verdicts per seller. It never mutates anything, so running it twice on
// the same input yields the same result.
//
// A line is grouped under the seller it claims to belong to, falling back to
// the catalog seller. A seller group is valid only if it has at least one
// line and every line is valid: checkout never orders a subset of what the
// customer saw.
func ValidateCart(lines []models.CartLine, snap models.CatalogSnapshot) models.CartValidation {
	groups := make(map[string]*models.SellerCartValidation)

	for _, line := range lines {
		entry, found := snap.Lookup(line.FoodItemID)
		result := classifyLine(line, entry, found)

		sellerID := line.SellerID
		if sellerID == "" && found {
			sellerID = entry.SellerID
		}
		g, ok := groups[sellerID]
		if !ok {
			g = &models.SellerCartValidation{SellerID: sellerID, Valid: true}
			groups[sellerID] = g
		}
		g.Lines = append(g.Lines, result)
		if result.Status == models.CartLineValid {
			g.Total += int64(result.Quantity) * result.CurrentPrice
		} else {
			g.Valid = false
		}
	}

	sellerIDs := make([]string, 0, len(groups))
	for id := range groups {
		sellerIDs = append(sellerIDs, id)
	}
	sort.Strings(sellerIDs)

	out := models.CartValidation{Valid: true, Sellers: make([]models.SellerCartValidation, 0, len(groups))}
	for _, id := range sellerIDs {
		g := groups[id]
		if len(g.Lines) == 0 {
			g.Valid = false
		}
		if !g.Valid {
			out.Valid = false
		}
		out.Sellers = append(out.Sellers, *g)
	}
	return out
}

func classifyLine(line models.CartLine, entry models.CatalogEntry, found bool) models.CartLineResult {
	res := models.CartLineResult{
		FoodItemID: line.FoodItemID,
		Quantity:   line.Quantity,
		Status:     models.CartLineValid,
	}
	if !found {
		res.Status = models.CartLineUnavailable
		res.Reason = "food item not found"
		return res
	}

	res.Name = entry.Name
	res.CurrentPrice = entry.Price

	switch {
	case !entry.Available:
		res.Status = models.CartLineUnavailable
		res.Reason = "food item is not available"
	case line.Quantity <= 0:
		res.Status = models.CartLineInvalidQuantity
		res.Reason = "quantity must be greater than zero"
	case line.SellerID != "" && line.SellerID != entry.SellerID:
		res.Status = models.CartLineSellerMismatch
		res.Reason = "food item belongs to a different seller"
	case line.ObservedPrice != nil && *line.ObservedPrice != entry.Price:
		res.Status = models.CartLineStalePrice
		res.Reason = "price has changed"
	}
	return res
}

// problemLines returns the lines that made a group invalid.
func problemLines(g models.SellerCartValidation) []models.CartLineResult {
	var out []models.CartLineResult
	for _, l := range g.Lines {
		if l.Status != models.CartLineValid {
			out = append(out, l)
		}
	}
	return out
}
