package gamification

import "eduengine/domain"

// Predicate evaluates a badge's unlock condition against the current
// progress snapshot, streak, and total XP (spec.md §3).
type Predicate func(progress domain.LearningProgress, streak domain.StreakInfo, totalXP int) bool

// Definition is one entry in the fixed badge registry.
type Definition struct {
	Key         string
	Title       string
	Description string
	Icon        string
	Tier        domain.BadgeTier
	Predicate   Predicate
}

func streakAtLeast(n int) Predicate {
	return func(_ domain.LearningProgress, streak domain.StreakInfo, _ int) bool {
		return streak.Current >= n
	}
}

func totalReviewsAtLeast(n int) Predicate {
	return func(progress domain.LearningProgress, _ domain.StreakInfo, _ int) bool {
		return progress.TotalReviews >= n
	}
}

func xpAtLeast(n int) Predicate {
	return func(_ domain.LearningProgress, _ domain.StreakInfo, totalXP int) bool {
		return totalXP >= n
	}
}

func accuracyAtLeast(acc float64, minReviews int) Predicate {
	return func(progress domain.LearningProgress, _ domain.StreakInfo, _ int) bool {
		return progress.TotalReviews >= minReviews && progress.OverallAccuracy() >= acc
	}
}

func masteredSubjectsAtLeast(n int) Predicate {
	return func(progress domain.LearningProgress, _ domain.StreakInfo, _ int) bool {
		count := 0
		for _, sp := range progress.Subjects {
			if sp.TotalCards > 0 && sp.MasteredCards == sp.TotalCards {
				count++
			}
		}
		return count >= n
	}
}

// Registry is the fixed, ordered set of 14 badge definitions evaluated
// by Engine.CheckBadges (spec.md §4.6).
var Registry = []Definition{
	{Key: "streak_3", Title: "Three-Day Streak", Description: "Study three days in a row.", Icon: "flame", Tier: domain.TierBronze, Predicate: streakAtLeast(3)},
	{Key: "streak_7", Title: "Week Warrior", Description: "Study seven days in a row.", Icon: "flame", Tier: domain.TierSilver, Predicate: streakAtLeast(7)},
	{Key: "streak_30", Title: "Monthly Dedication", Description: "Study thirty days in a row.", Icon: "flame", Tier: domain.TierGold, Predicate: streakAtLeast(30)},
	{Key: "streak_100", Title: "Centurion", Description: "Study one hundred days in a row.", Icon: "flame", Tier: domain.TierDiamond, Predicate: streakAtLeast(100)},

	{Key: "reviews_100", Title: "Getting Started", Description: "Complete 100 reviews.", Icon: "book", Tier: domain.TierBronze, Predicate: totalReviewsAtLeast(100)},
	{Key: "reviews_1000", Title: "Dedicated Learner", Description: "Complete 1,000 reviews.", Icon: "book", Tier: domain.TierSilver, Predicate: totalReviewsAtLeast(1000)},
	{Key: "reviews_10000", Title: "Master Student", Description: "Complete 10,000 reviews.", Icon: "book", Tier: domain.TierPlatinum, Predicate: totalReviewsAtLeast(10000)},

	{Key: "accuracy_90", Title: "Sharp Mind", Description: "Reach 90% accuracy over at least 50 reviews.", Icon: "target", Tier: domain.TierGold, Predicate: accuracyAtLeast(0.90, 50)},
	{Key: "accuracy_95", Title: "Precision Learner", Description: "Reach 95% accuracy over at least 100 reviews.", Icon: "target", Tier: domain.TierPlatinum, Predicate: accuracyAtLeast(0.95, 100)},

	{Key: "xp_1000", Title: "Rising Star", Description: "Earn 1,000 XP.", Icon: "star", Tier: domain.TierBronze, Predicate: xpAtLeast(1000)},
	{Key: "xp_10000", Title: "Shining Star", Description: "Earn 10,000 XP.", Icon: "star", Tier: domain.TierSilver, Predicate: xpAtLeast(10000)},
	{Key: "xp_100000", Title: "Supernova", Description: "Earn 100,000 XP.", Icon: "star", Tier: domain.TierDiamond, Predicate: xpAtLeast(100000)},

	{Key: "first_mastered_subject", Title: "First Mastery", Description: "Fully master your first subject.", Icon: "medal", Tier: domain.TierSilver, Predicate: masteredSubjectsAtLeast(1)},
	{Key: "triple_mastered_subjects", Title: "Triple Threat", Description: "Fully master three subjects.", Icon: "medal", Tier: domain.TierGold, Predicate: masteredSubjectsAtLeast(3)},
}
