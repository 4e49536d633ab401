package reply

import "ard/internal/models"

// MatchRules returns the rules triggered by one group message, in rule list
// order. Disabled rules and rules with any empty identity field never match.
// Matching is exact string equality on the group code and the sender uin;
// a single sender can trigger several rules at once.
func MatchRules(msg *models.InboundMessage, rules []*models.Rule) []*models.Rule {
	if msg.ChatType != models.ChatTypeGroup {
		return nil
	}
	if msg.PeerUin == "" || msg.SenderUin == "" {
		return nil
	}

	var matched []*models.Rule
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if r.GroupCode == "" || r.TriggerFriendUin == "" || r.TargetFriendUin == "" {
			continue
		}
		if r.GroupCode != msg.PeerUin || r.TriggerFriendUin != msg.SenderUin {
			continue
		}
		matched = append(matched, r)
	}
	return matched
}
