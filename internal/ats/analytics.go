package ats

import (
	"context"
	"sort"
)

const topSkillsLimit = 10

type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// Analytics summarises the active candidate pool.
type Analytics struct {
	TotalCandidates      int            `json:"total_candidates"`
	PositionDistribution map[string]int `json:"position_distribution"`
	AverageExperience    float64        `json:"average_experience"`
	TopSkills            []SkillCount   `json:"top_skills"`
}

func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	candidates, err := s.ListCandidates(ctx)
	if err != nil {
		return Analytics{}, err
	}

	a := Analytics{
		TotalCandidates:      len(candidates),
		PositionDistribution: make(map[string]int),
		TopSkills:            []SkillCount{},
	}
	if len(candidates) == 0 {
		return a, nil
	}

	skills := make(map[string]int)
	experience := 0
	for _, c := range candidates {
		a.PositionDistribution[c.Identity.Position]++
		experience += c.ExperienceYears
		for _, skill := range c.Skills {
			skills[skill]++
		}
	}
	a.AverageExperience = float64(experience) / float64(len(candidates))

	for skill, count := range skills {
		a.TopSkills = append(a.TopSkills, SkillCount{Skill: skill, Count: count})
	}
	sort.Slice(a.TopSkills, func(i, j int) bool {
		if a.TopSkills[i].Count != a.TopSkills[j].Count {
			return a.TopSkills[i].Count > a.TopSkills[j].Count
		}
		return a.TopSkills[i].Skill < a.TopSkills[j].Skill
	})
	if len(a.TopSkills) > topSkillsLimit {
		a.TopSkills = a.TopSkills[:topSkillsLimit]
	}
	return a, nil
}
