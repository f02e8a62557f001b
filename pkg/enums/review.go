package enums

import "fmt"

// VoteType is a helpfulness vote on a review.
type VoteType string

const (
	VoteHelpful    VoteType = "helpful"
	VoteNotHelpful VoteType = "not_helpful"
)

var validVoteTypes = []VoteType{
	VoteHelpful,
	VoteNotHelpful,
}

// String implements fmt.Stringer.
func (v VoteType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VoteType.
func (v VoteType) IsValid() bool {
	for _, candidate := range validVoteTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoteType converts raw input into a VoteType.
func ParseVoteType(value string) (VoteType, error) {
	for _, candidate := range validVoteTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vote %q", value)
}

// FlagReason explains why a review was reported.
type FlagReason string

const (
	FlagReasonInappropriate FlagReason = "inappropriate"
	FlagReasonSpam          FlagReason = "spam"
	FlagReasonFake          FlagReason = "fake"
	FlagReasonOffensive     FlagReason = "offensive"
	FlagReasonIrrelevant    FlagReason = "irrelevant"
)

var validFlagReasons = []FlagReason{
	FlagReasonInappropriate,
	FlagReasonSpam,
	FlagReasonFake,
	FlagReasonOffensive,
	FlagReasonIrrelevant,
}

// String implements fmt.Stringer.
func (v FlagReason) String() string {
	return string(v)
}

// IsValid reports whether the value is a known FlagReason.
func (v FlagReason) IsValid() bool {
	for _, candidate := range validFlagReasons {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseFlagReason converts raw input into a FlagReason.
func ParseFlagReason(value string) (FlagReason, error) {
	for _, candidate := range validFlagReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid flag reason %q", value)
}

// FitRating captures sizing feedback.
type FitRating string

const (
	FitRunsSmall  FitRating = "runs_small"
	FitTrueToSize FitRating = "true_to_size"
	FitRunsLarge  FitRating = "runs_large"
)

var validFitRatings = []FitRating{
	FitRunsSmall,
	FitTrueToSize,
	FitRunsLarge,
}

// String implements fmt.Stringer.
func (v FitRating) String() string {
	return string(v)
}

// IsValid reports whether the value is a known FitRating.
func (v FitRating) IsValid() bool {
	for _, candidate := range validFitRatings {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseFitRating converts raw input into a FitRating.
func ParseFitRating(value string) (FitRating, error) {
	for _, candidate := range validFitRatings {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fit rating %q", value)
}

// ReviewSort orders a product's review listing.
type ReviewSort string

const (
	ReviewSortNewest     ReviewSort = "newest"
	ReviewSortHelpful    ReviewSort = "helpful"
	ReviewSortRatingHigh ReviewSort = "rating_high"
	ReviewSortRatingLow  ReviewSort = "rating_low"
)

var validReviewSorts = []ReviewSort{
	ReviewSortNewest,
	ReviewSortHelpful,
	ReviewSortRatingHigh,
	ReviewSortRatingLow,
}

// String implements fmt.Stringer.
func (v ReviewSort) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ReviewSort.
func (v ReviewSort) IsValid() bool {
	for _, candidate := range validReviewSorts {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseReviewSort converts raw input into a ReviewSort.
func ParseReviewSort(value string) (ReviewSort, error) {
	for _, candidate := range validReviewSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid review sort %q", value)
}
