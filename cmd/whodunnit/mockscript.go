package main

// mockScript is the canned response served by the mock provider, enough
// to exercise the full generation path without an API key.
const mockScript = `{
  "title": "The Mystery of the Vanished Gingerbread",
  "overview": "Someone has made off with the prize gingerbread house the night before the big party.",
  "howToPlay": "Welcome, everyone! Tonight you will each play a character at the holiday fair. Read your character sheet in secret, then in each round share your lines and talk in character. Between rounds the inspector reads a short update. Nobody reveals the solution until the final guessing phase.",
  "characters": [
    {
      "playerName": "",
      "characterName": "Professor Plum Pudding",
      "costumeDescription": "A tweed jacket with a sprig of holly in the lapel.",
      "personality": "Curious and a little forgetful.",
      "secretBackstory": "Once lost a baking contest to the victim and never quite forgave them.",
      "perRoundLines": [
        "Round 1 - things to say and talk about:\nYou say: I was in the kitchen all evening, testing my new recipe.\nYou can talk about: The strange smell of peppermint near the pantry.",
        "Round 2 - things to say and talk about:\nYou say: Ginger Snap, I saw you near the display table after dark.\nYou can talk about: The crumbs leading toward the cloakroom.",
        "Round 3 - things to say and talk about:\nYou say: I admit I was jealous, but I would never touch that gingerbread.\nYou can talk about: Who had a key to the hall."
      ]
    },
    {
      "playerName": "",
      "characterName": "Ginger Snap",
      "costumeDescription": "A baker's apron dusted with flour.",
      "personality": "Cheerful, quick-witted, always snacking.",
      "secretBackstory": "Borrowed the hall key to practice decorating and never returned it.",
      "perRoundLines": [
        "Round 1 - things to say and talk about:\nYou say: I only stopped by to admire the icing work.\nYou can talk about: The open window in the back room.",
        "Round 2 - things to say and talk about:\nYou say: Professor Plum Pudding, your jacket smells of peppermint too!\nYou can talk about: The missing key from the hook.",
        "Round 3 - things to say and talk about:\nYou say: Fine, I had the key, but I gave it back before supper.\nYou can talk about: Who you saw leaving last."
      ]
    },
    {
      "playerName": "",
      "characterName": "Inspector Evergreen's Nephew, Nick",
      "costumeDescription": "A scarf far too long and a magnifying glass.",
      "personality": "Eager, dramatic, desperate to solve a real case.",
      "secretBackstory": "Moved the gingerbread house to photograph it and put it back in the wrong spot.",
      "perRoundLines": [
        "Round 1 - things to say and talk about:\nYou say: I have been watching everyone very closely tonight.\nYou can talk about: The footprints by the side door.",
        "Round 2 - things to say and talk about:\nYou say: The culprit must have struck between supper and carols.\nYou can talk about: The flour smudge on the door handle.",
        "Round 3 - things to say and talk about:\nYou say: I may have touched the display, but only for the perfect photo!\nYou can talk about: What you noticed about the window latch."
      ]
    }
  ],
  "inspectorSegments": [
    {
      "round": 1,
      "title": "The Inspector Arrives",
      "description": "Inspector says: The gingerbread house vanished sometime after supper. Talk to each other and find out who was near the display table."
    },
    {
      "round": 2,
      "title": "Crumbs and Clues",
      "description": "Inspector says: Last round you learned about the peppermint smell and the missing key. Someone here is not telling the whole truth. Ask about the open window."
    },
    {
      "round": 3,
      "title": "The Final Reveal",
      "description": "Inspector says: The mystery is solved! Nick moved the house for a photograph, and Ginger Snap, finding it out of place, hid it in the cloakroom as a prank. The peppermint, the key, and the flour smudge all pointed their way. The gingerbread house is safe, and the party can begin!"
    }
  ],
  "finalGuessInstructions": "After round 3's dialogue, pause the story. Everyone writes down or says who they think took the gingerbread house and why. Once every guess is in, the inspector reads the final segment aloud and reveals the full solution."
}`
